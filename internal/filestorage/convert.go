package filestorage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

const mimeTypeUnknown = "application/octet-stream"

// FillLocalFile creates a local record carrying every attribute of a remote
// record read from the server.
func FillLocalFile(remote *models.RemoteFile) *models.LocalFile {
	file := models.NewLocalFile(remote.RemotePath)
	file.CreationTimestamp = remote.CreationTimestamp
	file.UploadTimestamp = remote.UploadTimestamp
	if remote.IsFolder() {
		file.FileLength = remote.Size
	} else {
		file.FileLength = remote.Length
	}
	file.MimeType = remote.MimeType
	file.ModificationTimestamp = remote.ModifiedTimestamp
	file.Etag = remote.Etag
	file.Permissions = remote.Permissions
	file.RemoteID = remote.RemoteID
	file.LocalID = remote.LocalID
	file.Favorite = remote.Favorite
	if file.IsFolder() {
		file.Encrypted = remote.Encrypted
	}
	file.MountType = remote.MountType
	file.PreviewAvailable = remote.HasPreview
	file.UnreadCommentsCount = remote.UnreadCommentsCount
	file.OwnerID = remote.OwnerID
	file.OwnerDisplayName = remote.OwnerDisplayName
	file.Note = remote.Note
	file.Sharees = slices.Clone(remote.Sharees)
	file.RichWorkspace = remote.RichWorkspace
	file.Lock = remote.Lock
	file.Tags = slices.Clone(remote.Tags)
	if remote.ImageDimension != nil {
		d := *remote.ImageDimension
		file.ImageDimension = &d
	}
	if remote.GeoLocation != nil {
		g := *remote.GeoLocation
		file.GeoLocation = &g
	}
	file.LivePhoto = remote.LivePhoto
	file.Hidden = remote.Hidden
	return file
}

// FillRemoteFile creates a remote record from a local one. Only path,
// timestamps, length, mime type, etag, permissions, remote id and the
// favorite flag are carried over; lock, share, tag and media metadata is
// dropped.
func FillRemoteFile(file *models.LocalFile) *models.RemoteFile {
	remote := &models.RemoteFile{
		RemotePath:        file.RemotePath,
		CreationTimestamp: file.CreationTimestamp,
		Length:            file.FileLength,
		MimeType:          file.MimeType,
		ModifiedTimestamp: file.ModificationTimestamp,
		Etag:              file.Etag,
		Permissions:       file.Permissions,
		RemoteID:          file.RemoteID,
		Favorite:          file.Favorite,
	}
	if remote.IsFolder() {
		remote.Size = file.FileLength
	}
	return remote
}

// LocalFileFromDisk builds a record for path, found below root, the local save
// path of an account. The remote path is path relative to root, with a
// trailing separator for folders. The record is linked to path and counts as
// synced at its modification time.
func LocalFileFromDisk(root, path string) (*models.LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, opError("stat", path, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, opError("stat", root, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, opError("stat", path, err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, &OpError{Op: "stat", Path: path, Err: fmt.Errorf("not below %s: %w", root, fs.ErrInvalid)}
	}

	remotePath := models.RootPath
	if rel != "." {
		remotePath += filepath.ToSlash(rel)
		if info.IsDir() {
			remotePath += models.PathSeparator
		}
	}

	file := models.NewLocalFile(remotePath)
	if info.IsDir() {
		file.MimeType = models.MimeTypeDirectory
		file.FileLength = FolderSize(path)
	} else {
		file.MimeType = MimeTypeFromName(path)
		if file.MimeType == "" {
			file.MimeType = mimeTypeUnknown
		}
		file.FileLength = info.Size()
	}
	file.ModificationTimestamp = info.ModTime().UnixMilli()
	file.StoragePath = path
	file.LastSyncDateForData = file.ModificationTimestamp
	return file, nil
}

// SortByModifiedDesc sorts files newest first, in place.
func SortByModifiedDesc(files []*models.LocalFile) []*models.LocalFile {
	slices.SortStableFunc(files, func(a, b *models.LocalFile) int {
		switch {
		case a.ModificationTimestamp > b.ModificationTimestamp:
			return -1
		case a.ModificationTimestamp < b.ModificationTimestamp:
			return 1
		}
		return 0
	})
	return files
}

// SortByModifiedDescFavoritesFirst sorts files newest first and then moves
// favorites ahead of the rest, keeping the date order within each group.
func SortByModifiedDescFavoritesFirst(files []*models.LocalFile) []*models.LocalFile {
	SortByModifiedDesc(files)
	slices.SortStableFunc(files, func(a, b *models.LocalFile) int {
		switch {
		case a.Favorite && !b.Favorite:
			return -1
		case !a.Favorite && b.Favorite:
			return 1
		}
		return 0
	})
	return files
}
