// Package handshake provides the single-slot signal that paces the host's
// accept loop.
//
// The loop arms the signal, issues one accept, and waits. The accept
// callback sets the signal on every exit path, which lets the loop issue
// the next accept. The slot holds at most one pending set, so a callback
// can never release more than one iteration.
package handshake
