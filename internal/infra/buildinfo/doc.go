// Package buildinfo reports the version of the running binary.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/hostlink-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not injected, Get falls back to the VCS stamp recorded by
// the Go toolchain.
package buildinfo
