package filestorage

import (
	"context"
	"os"
	"time"

	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

// FileLookup resolves file records by their local database id. It returns
// (nil, nil) when no record exists.
type FileLookup interface {
	FileByID(ctx context.Context, id int64) (*models.LocalFile, error)
}

// savePollInterval is how often CheckIfFileFinishedSaving samples the file.
var savePollInterval = time.Second

// SearchForLocalFileInDefaultPath relinks a file record to a copy left in the
// default save path, e.g. after the app data was cleared. It assumes the copy
// matches the server version. It reports whether the record was changed.
func (l Layout) SearchForLocalFileInDefaultPath(file *models.LocalFile, accountName string) bool {
	if file.IsFolder() {
		return false
	}
	if file.StoragePath != "" {
		if _, err := os.Stat(file.StoragePath); err == nil {
			return false
		}
	}

	candidate := l.DefaultSavePathFor(accountName, file)
	info, err := os.Stat(candidate)
	if err != nil {
		return false
	}
	file.StoragePath = candidate
	file.LastSyncDateForData = info.ModTime().UnixMilli()
	return true
}

// CheckIfFileFinishedSaving waits while another writer is still filling the
// local copy of file. When both the size and the modification time differ
// from the record it polls until one of them stops changing.
func CheckIfFileFinishedSaving(ctx context.Context, file *models.LocalFile) error {
	info, err := os.Stat(file.StoragePath)
	if err != nil {
		return opError("wait_saved", file.StoragePath, err)
	}
	if info.ModTime().UnixMilli() == file.ModificationTimestamp || info.Size() == file.FileLength {
		return nil
	}

	var lastModified, lastSize int64
	for {
		info, err := os.Stat(file.StoragePath)
		if err != nil {
			return opError("wait_saved", file.StoragePath, err)
		}
		modified, size := info.ModTime().UnixMilli(), info.Size()
		if modified == lastModified || size == lastSize {
			return nil
		}
		lastModified, lastSize = modified, size

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(savePollInterval):
		}
	}
}

// CheckEncryptionStatus reports whether file or any of its ancestors is
// end-to-end encrypted.
func CheckEncryptionStatus(ctx context.Context, file *models.LocalFile, lookup FileLookup) (bool, error) {
	if file.Encrypted {
		return true, nil
	}
	for file != nil && file.DecryptedRemotePath != models.RootPath {
		if file.Encrypted {
			return true, nil
		}
		parent, err := lookup.FileByID(ctx, file.ParentID)
		if err != nil {
			return false, err
		}
		file = parent
	}
	return false, nil
}
