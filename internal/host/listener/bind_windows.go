//go:build windows

package listener

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

// isAccessDenied reports whether a listen error means the address is not
// reserved for this user. Winsock reports it as WSAEACCES.
func isAccessDenied(err error) bool {
	return errors.Is(err, windows.WSAEACCES) || errors.Is(err, os.ErrPermission)
}
