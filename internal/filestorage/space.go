package filestorage

import (
	"fmt"

	"github.com/fruitsalade/fruitsalade/mobile/internal/metrics"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

// HasEnoughSpace reports whether available bytes suffice to download file.
//
// A folder only needs the bytes it does not already have locally, because
// existing copies are overwritten in place. A file is always written in full
// before it replaces the old copy, so it gets no credit for local bytes.
func HasEnoughSpace(available int64, file *models.LocalFile) bool {
	if file.IsFolder() {
		return available > file.FileLength-LocalFolderSize(file)
	}
	return available > file.FileLength
}

// LocalFolderSize returns the bytes already on disk for a folder record, 0
// when nothing has been downloaded yet.
func LocalFolderSize(file *models.LocalFile) int64 {
	if !file.IsDown() {
		return 0
	}
	return FolderSize(file.StoragePath)
}

// CheckIfEnoughSpace checks file against the free space of the storage root
// and returns the free byte count it judged by. It fails with ErrSpaceUnknown
// when the free space cannot be determined.
func (l Layout) CheckIfEnoughSpace(file *models.LocalFile) (ok bool, available int64, err error) {
	available, err = l.UsableSpace()
	if err != nil {
		metrics.RecordSpaceCheck("unknown")
		return false, 0, fmt.Errorf("%w: %w", ErrSpaceUnknown, err)
	}
	metrics.SetAvailableBytes(available)

	ok = HasEnoughSpace(available, file)
	if ok {
		metrics.RecordSpaceCheck("enough")
	} else {
		metrics.RecordSpaceCheck("insufficient")
	}
	return ok, available, nil
}
