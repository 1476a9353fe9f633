//go:build windows

package filestorage

import (
	"os"

	"golang.org/x/sys/windows"
)

// AvailableSpace returns the bytes available to the calling user on the
// volume holding path.
func AvailableSpace(path string) (int64, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, opError("statfs", path, err)
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return 0, opError("statfs", path, err)
	}
	return int64(free), nil
}

func canWrite(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().Perm()&0o200 != 0
}

func canRead(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
