//go:build linux || darwin || freebsd

package filestorage

import "golang.org/x/sys/unix"

// AvailableSpace returns the bytes available to unprivileged users on the
// volume holding path.
func AvailableSpace(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, opError("statfs", path, err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

func canWrite(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

func canRead(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}
