package filestorage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/internal/metrics"
)

// MediaIndex is told about every file removed from disk so that its catalog
// entry can be invalidated.
type MediaIndex interface {
	DeleteFileInMediaScan(ctx context.Context, path string) error
}

// Replaced in tests to inject failures.
var (
	copyFileFunc = copyFile
	readDirFunc  = os.ReadDir
)

// CopyFile copies the contents of src into dst, creating or truncating dst.
// The parent of dst must exist. Copying a file onto itself is refused with
// ReasonAlreadyExists.
func CopyFile(src, dst string) error {
	err := copyFileFunc(src, dst)
	metrics.RecordFileOp("copy", err == nil)
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return opError("copy", src, err)
	}
	defer in.Close()

	if sameFile(in, dst) {
		return &OpError{Op: "copy", Path: dst, Reason: ReasonAlreadyExists, Err: fs.ErrExist}
	}

	out, err := os.Create(dst)
	if err != nil {
		return opError("copy", dst, err)
	}

	n, err := io.Copy(out, in)
	metrics.RecordBytesCopied(n)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return opError("copy", dst, err)
	}
	return nil
}

// sameFile reports whether dst names the file already opened as src,
// through any alias such as a relative path or a hard link.
func sameFile(src *os.File, dst string) bool {
	si, err := src.Stat()
	if err != nil {
		return false
	}
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return os.SameFile(si, di)
}

// MoveFile copies src to dst and then removes src. It is not atomic: if the
// process dies after the copy, both files remain. When the copy fails src is
// left untouched.
func MoveFile(src, dst string) error {
	err := moveFile(src, dst)
	metrics.RecordFileOp("move", err == nil)
	return err
}

func moveFile(src, dst string) error {
	if err := copyFileFunc(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return opError("move", src, err)
	}
	return nil
}

// CopyDirs copies the tree at src into dst, which must not exist yet and must
// not lie inside src.
// Entries are copied in directory listing order and the copy stops at the
// first failure, leaving the already copied part in place. Such a failure is
// reported with ReasonPartialCopy.
func CopyDirs(src, dst string) error {
	err := copyDirs(src, dst)
	metrics.RecordFileOp("copy_dirs", err == nil)
	return err
}

func copyDirs(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &OpError{Op: "copy_dirs", Path: dst, Reason: ReasonAlreadyExists, Err: fs.ErrExist}
	}
	if within(src, dst) {
		return &OpError{Op: "copy_dirs", Path: dst, Err: fmt.Errorf("target inside source %s: %w", src, fs.ErrInvalid)}
	}

	entries, err := readDirFunc(src)
	if err != nil {
		return opError("copy_dirs", src, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return opError("copy_dirs", dst, err)
	}

	if err := copyEntries(src, dst, entries); err != nil {
		return &OpError{Op: "copy_dirs", Path: dst, Reason: ReasonPartialCopy, Err: err}
	}
	return nil
}

func copyEntries(src, dst string, entries []fs.DirEntry) error {
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())

		if !isDir(from, e) {
			if err := copyFileFunc(from, to); err != nil {
				return err
			}
			continue
		}

		children, err := readDirFunc(from)
		if err != nil {
			return opError("copy_dirs", from, err)
		}
		if err := os.Mkdir(to, 0o755); err != nil {
			return opError("copy_dirs", to, err)
		}
		if err := copyEntries(from, to, children); err != nil {
			return err
		}
	}
	return nil
}

// within reports whether path lies below root once both are resolved.
func within(root, path string) bool {
	rel, err := filepath.Rel(resolve(root), resolve(path))
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve makes p absolute and follows symlinks on the part of it that
// exists.
func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(resolve(parent), filepath.Base(abs))
}

// isDir follows symlinks, like a plain stat would.
func isDir(path string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DeleteRecursively removes path and everything below it, children before
// their parent. Each regular file is reported to index before it is removed.
// Index failures are logged and do not stop the delete. A folder whose
// listing cannot be read is left alone.
//
// The first removal failure is returned; the walk continues past it.
func DeleteRecursively(ctx context.Context, path string, index MediaIndex) error {
	info, err := os.Lstat(path)
	if err != nil {
		return opError("delete", path, err)
	}

	var first error
	if info.IsDir() {
		entries, err := readDirFunc(path)
		if err != nil {
			logging.WithContext(ctx).Debug("skipping unreadable folder",
				logging.String("path", path), logging.Err(err))
			return nil
		}
		for _, e := range entries {
			if err := DeleteRecursively(ctx, filepath.Join(path, e.Name()), index); err != nil && first == nil {
				first = err
			}
		}
	} else if index != nil {
		err := index.DeleteFileInMediaScan(ctx, path)
		metrics.RecordMediaIndexInvalidation(err == nil)
		if err != nil {
			logging.WithContext(ctx).Warn("media index invalidation failed",
				logging.String("path", path), logging.Err(err))
		}
	}

	if err := os.Remove(path); err != nil {
		if first == nil {
			first = opError("delete", path, err)
		}
		return first
	}
	metrics.RecordDeleted()
	return first
}

// DeleteRecursive removes path and everything below it without notifying any
// index. It keeps going after failures and returns the first one. A folder
// whose listing cannot be read is treated as a no-op.
func DeleteRecursive(path string) error {
	err := deleteRecursive(path)
	metrics.RecordFileOp("delete", err == nil)
	return err
}

func deleteRecursive(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return opError("delete", path, err)
	}

	var first error
	if info.IsDir() {
		entries, err := readDirFunc(path)
		if err != nil {
			return nil
		}
		for _, e := range entries {
			if err := deleteRecursive(filepath.Join(path, e.Name())); err != nil && first == nil {
				first = err
			}
		}
	}

	if err := os.Remove(path); err != nil {
		if first == nil {
			first = opError("delete", path, err)
		}
		return first
	}
	metrics.RecordDeleted()
	return first
}

// FolderSize returns the total size in bytes of the regular files below dir,
// or 0 when dir is missing, not a folder or unreadable.
func FolderSize(dir string) int64 {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	var total int64
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if isDir(p, e) {
			total += FolderSize(p)
			continue
		}
		if fi, err := os.Stat(p); err == nil {
			total += fi.Size()
		}
	}
	return total
}

// IsFolderWritable reports whether new content can be written to folder.
// A non-empty folder is judged by its first child.
func IsFolderWritable(folder string) bool {
	entries, err := os.ReadDir(folder)
	if err == nil && len(entries) > 0 {
		return canWrite(filepath.Join(folder, entries[0].Name()))
	}
	return canWrite(folder)
}
