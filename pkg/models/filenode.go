// Package models contains the file and account records shared by the
// storage and profile packages.
package models

import (
	"fmt"
	"strings"
)

// MimeTypeDirectory is the mime type the server reports for folders.
const MimeTypeDirectory = "DIR"

// RootPath is the remote path of an account's root folder.
const RootPath = "/"

// PathSeparator separates remote path segments.
const PathSeparator = "/"

// Sharee is a user or group a file is shared with.
type Sharee struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	ShareType   int    `json:"share_type"`
}

// Lock holds the server-side lock state of a file.
type Lock struct {
	Locked           bool   `json:"locked"`
	Type             int    `json:"type,omitempty"`
	OwnerID          string `json:"owner_id,omitempty"`
	OwnerDisplayName string `json:"owner_display_name,omitempty"`
	OwnerEditor      string `json:"owner_editor,omitempty"`
	Timestamp        int64  `json:"timestamp,omitempty"`
	Timeout          int64  `json:"timeout,omitempty"`
	Token            string `json:"token,omitempty"`
}

// ImageDimension is the pixel size of an image preview.
type ImageDimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GeoLocation is the capture position of a photo.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RemoteFile is a metadata snapshot of a file or folder as reported by the
// server. Folders carry their size in Size, files in Length.
type RemoteFile struct {
	RemotePath          string          `json:"remote_path"`
	MimeType            string          `json:"mime_type"`
	Size                int64           `json:"size"`
	Length              int64           `json:"length"`
	CreationTimestamp   int64           `json:"creation_timestamp"`
	ModifiedTimestamp   int64           `json:"modified_timestamp"`
	UploadTimestamp     int64           `json:"upload_timestamp"`
	Etag                string          `json:"etag"`
	Permissions         string          `json:"permissions"`
	RemoteID            string          `json:"remote_id"`
	LocalID             int64           `json:"local_id"`
	Favorite            bool            `json:"favorite"`
	Encrypted           bool            `json:"encrypted"`
	MountType           string          `json:"mount_type,omitempty"`
	HasPreview          bool            `json:"has_preview"`
	UnreadCommentsCount int             `json:"unread_comments_count"`
	OwnerID             string          `json:"owner_id,omitempty"`
	OwnerDisplayName    string          `json:"owner_display_name,omitempty"`
	Note                string          `json:"note,omitempty"`
	Sharees             []Sharee        `json:"sharees,omitempty"`
	RichWorkspace       string          `json:"rich_workspace,omitempty"`
	Lock                Lock            `json:"lock"`
	Tags                []string        `json:"tags,omitempty"`
	ImageDimension      *ImageDimension `json:"image_dimension,omitempty"`
	GeoLocation         *GeoLocation    `json:"geo_location,omitempty"`
	LivePhoto           string          `json:"live_photo,omitempty"`
	Hidden              bool            `json:"hidden"`
}

// IsFolder reports whether the record describes a folder.
func (r *RemoteFile) IsFolder() bool {
	return strings.EqualFold(r.MimeType, MimeTypeDirectory)
}

// LocalFile is the client-side record of a remote file, optionally linked to
// a local copy through StoragePath.
type LocalFile struct {
	ID                    int64           `json:"id"`
	ParentID              int64           `json:"parent_id"`
	RemotePath            string          `json:"remote_path"`
	DecryptedRemotePath   string          `json:"decrypted_remote_path"`
	FileLength            int64           `json:"file_length"`
	MimeType              string          `json:"mime_type"`
	CreationTimestamp     int64           `json:"creation_timestamp"`
	ModificationTimestamp int64           `json:"modification_timestamp"`
	UploadTimestamp       int64           `json:"upload_timestamp"`
	Etag                  string          `json:"etag"`
	Permissions           string          `json:"permissions"`
	RemoteID              string          `json:"remote_id"`
	LocalID               int64           `json:"local_id"`
	Favorite              bool            `json:"favorite"`
	Encrypted             bool            `json:"encrypted"`
	MountType             string          `json:"mount_type,omitempty"`
	PreviewAvailable      bool            `json:"preview_available"`
	UnreadCommentsCount   int             `json:"unread_comments_count"`
	OwnerID               string          `json:"owner_id,omitempty"`
	OwnerDisplayName      string          `json:"owner_display_name,omitempty"`
	Note                  string          `json:"note,omitempty"`
	Sharees               []Sharee        `json:"sharees,omitempty"`
	RichWorkspace         string          `json:"rich_workspace,omitempty"`
	Lock                  Lock            `json:"lock"`
	Tags                  []string        `json:"tags,omitempty"`
	ImageDimension        *ImageDimension `json:"image_dimension,omitempty"`
	GeoLocation           *GeoLocation    `json:"geo_location,omitempty"`
	LivePhoto             string          `json:"live_photo,omitempty"`
	Hidden                bool            `json:"hidden"`

	// StoragePath is the absolute path of the local copy, empty until the
	// file has been materialised on disk.
	StoragePath         string `json:"storage_path,omitempty"`
	LastSyncDateForData int64  `json:"last_sync_date_for_data"`
}

// NewLocalFile returns a record for the given remote path.
func NewLocalFile(remotePath string) *LocalFile {
	return &LocalFile{RemotePath: remotePath, DecryptedRemotePath: remotePath}
}

// IsFolder reports whether the record describes a folder.
func (f *LocalFile) IsFolder() bool {
	return strings.EqualFold(f.MimeType, MimeTypeDirectory)
}

// IsDown reports whether a local copy path is set. Existence on disk is
// checked by the caller.
func (f *LocalFile) IsDown() bool {
	return f.StoragePath != ""
}

// SubFolderRule controls date-based bucketing of uploaded media.
type SubFolderRule int

const (
	SubFolderNone SubFolderRule = iota
	SubFolderYear
	SubFolderYearMonth
	SubFolderYearMonthDay
)

func (r SubFolderRule) String() string {
	switch r {
	case SubFolderYear:
		return "YEAR"
	case SubFolderYearMonth:
		return "YEAR_MONTH"
	case SubFolderYearMonthDay:
		return "YEAR_MONTH_DAY"
	default:
		return "NONE"
	}
}

// ParseSubFolderRule parses a rule name such as "YEAR_MONTH" or "year-month".
func ParseSubFolderRule(s string) (SubFolderRule, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "", "NONE":
		return SubFolderNone, nil
	case "YEAR":
		return SubFolderYear, nil
	case "YEAR_MONTH":
		return SubFolderYearMonth, nil
	case "YEAR_MONTH_DAY":
		return SubFolderYearMonthDay, nil
	}
	return SubFolderNone, fmt.Errorf("unknown sub folder rule: %q", s)
}

// Quota is the storage quota of an account in bytes.
type Quota struct {
	Free     int64   `json:"free"`
	Used     int64   `json:"used"`
	Total    int64   `json:"total"`
	Relative float64 `json:"relative"`
	Quota    int64   `json:"quota"`
}

// UserInfo is the profile of an account as reported by the server.
type UserInfo struct {
	ID          string   `json:"id"`
	Enabled     bool     `json:"enabled"`
	DisplayName string   `json:"display-name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Website     string   `json:"website"`
	Twitter     string   `json:"twitter"`
	Groups      []string `json:"groups"`
	Quota       *Quota   `json:"quota,omitempty"`
}
