// Package reservation grants the process the right to bind an address it
// was denied.
//
// The capability is deliberately narrow: Reserve either returns a token
// for a later Release, reports that the platform has no reservation
// mechanism, or fails. Shell implements it by running operator-configured
// shell commands (for example a setcap or netsh wrapper); None is used when
// nothing is configured.
package reservation
