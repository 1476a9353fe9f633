//go:build !linux && !darwin && !freebsd && !windows

package filestorage

import (
	"errors"
	"os"
)

// AvailableSpace is not supported on this platform.
func AvailableSpace(path string) (int64, error) {
	return 0, opError("statfs", path, errors.ErrUnsupported)
}

func canWrite(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().Perm()&0o200 != 0
}

func canRead(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
