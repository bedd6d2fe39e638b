//go:build unix

package listener

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isAccessDenied reports whether a listen error means the address needs a
// privilege the process does not have (ports below 1024, SELinux denials).
func isAccessDenied(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}
