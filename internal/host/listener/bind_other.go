//go:build !unix && !windows

package listener

import (
	"errors"
	"os"
)

func isAccessDenied(err error) bool {
	return errors.Is(err, os.ErrPermission)
}
