// Package filestorage derives local cache paths for synced accounts, converts
// between remote and local file records, and performs the recursive copy,
// move, delete and free-space checks the sync client needs.
//
// All operations are synchronous. Recursive walks are not protected against
// concurrent mutation of the same tree; callers serialise access per tree.
package filestorage

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

const (
	tempFolder            = "tmp"
	tempEncryptedFolder   = "temp_encrypted_folder"
	accountNameKeepChars  = "@"
	patternYear           = "2006/"
	patternYearMonth      = "2006/01/"
	patternYearMonthDay   = "2006/01/02/"
	uriUnreservedSpecials = "_-!.~'()*"
)

var repeatedSeparators = regexp.MustCompile(models.PathSeparator + "+")

// Layout describes where the app keeps its data on the device.
type Layout struct {
	StorageRoot string // shared storage root, e.g. /storage/emulated/0/Android/media/<app>
	DataFolder  string // app folder name, e.g. "nextcloud"
	FilesDir    string // app-private files directory
}

// SavePath returns the local cache root of an account. The account name is
// URL-encoded because FAT32 and NTFS reject ':' in file names.
func (l Layout) SavePath(accountName string) string {
	return l.StorageRoot + models.PathSeparator + l.DataFolder + models.PathSeparator +
		EncodeAccountName(accountName)
}

// DefaultSavePathFor returns the local path a remote file is stored at after
// download or upload.
func (l Layout) DefaultSavePathFor(accountName string, file *models.LocalFile) string {
	return l.SavePath(accountName) + file.DecryptedRemotePath
}

// TemporalPath returns the temp folder for an account inside the data folder.
func (l Layout) TemporalPath(accountName string) string {
	return l.StorageRoot + models.PathSeparator + l.DataFolder + models.PathSeparator +
		tempFolder + models.PathSeparator + EncodeAccountName(accountName)
}

// TemporalEncryptedFolderPath returns the scratch folder used while an
// end-to-end encrypted folder is assembled.
func (l Layout) TemporalEncryptedFolderPath(accountName string) string {
	return l.FilesDir + models.PathSeparator + accountName + models.PathSeparator + tempEncryptedFolder
}

// AppTempDirectoryPath returns the private temp folder, with a trailing
// separator.
func (l Layout) AppTempDirectoryPath() string {
	return l.FilesDir + models.PathSeparator + l.DataFolder + models.PathSeparator +
		tempFolder + models.PathSeparator
}

// InternalTemporalPath returns the private temp folder of an account.
func (l Layout) InternalTemporalPath(accountName string) string {
	return l.AppTempDirectoryPath() + EncodeAccountName(accountName)
}

// UsableSpace returns an optimistic count of free bytes on the storage root.
func (l Layout) UsableSpace() (int64, error) {
	return AvailableSpace(l.StorageRoot)
}

// EncodeAccountName percent-encodes an account name for use as a single path
// segment, keeping '@' readable.
func EncodeAccountName(accountName string) string {
	return uriEncode(accountName, accountNameKeepChars)
}

// uriEncode escapes every byte outside the URI unreserved set and allow,
// using upper-case hex digits.
func uriEncode(s, allow string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || (c < 0x80 && strings.IndexByte(allow, c) >= 0) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		strings.IndexByte(uriUnreservedSpecials, c) >= 0
}

// SubPathFromDate formats epochMillis as "2006/", "2006/01/" or "2006/01/02/"
// according to rule. It returns "" for a zero date or SubFolderNone. A nil loc
// means the local time zone.
func SubPathFromDate(epochMillis int64, loc *time.Location, rule models.SubFolderRule) string {
	if epochMillis == 0 {
		logging.Warn("sub path requested for zero date")
		return ""
	}

	var layout string
	switch rule {
	case models.SubFolderYear:
		layout = patternYear
	case models.SubFolderYearMonth:
		layout = patternYearMonth
	case models.SubFolderYearMonthDay:
		layout = patternYearMonthDay
	default:
		return ""
	}

	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(epochMillis).In(loc).Format(layout)
}

// InstantUploadFilePath returns the remote path an auto-uploaded local file
// goes to: remotePath, the optional date sub path, the file's folder relative
// to the synced local folder, and the file name.
//
// The result never contains repeated separators. Folder refresh compares
// paths for equality, and a non-normalized path makes it delete the local
// copy.
func InstantUploadFilePath(localPath string, loc *time.Location, remotePath, syncedFolderLocalPath string,
	dateTaken int64, subfolderByDate bool, rule models.SubFolderRule) string {
	datePath := ""
	if subfolderByDate {
		datePath = SubPathFromDate(dateTaken, loc, rule)
	}

	absolute := localPath
	if abs, err := filepath.Abs(localPath); err == nil {
		absolute = abs
	}
	absolute = filepath.ToSlash(absolute)

	relative := absolute
	if syncedFolderLocalPath != "" {
		relative = strings.ReplaceAll(absolute, filepath.ToSlash(syncedFolderLocalPath), "")
	}

	relativeSubfolder := ""
	if i := strings.LastIndex(relative, models.PathSeparator); i >= 0 {
		relativeSubfolder = relative[:i]
	} else {
		logging.Warn("auto upload file has no parent folder", logging.String("path", localPath))
	}

	joined := remotePath + models.PathSeparator + datePath + models.PathSeparator +
		relativeSubfolder + models.PathSeparator + path.Base(absolute)
	return NormalizeRemotePath(joined)
}

// NormalizeRemotePath collapses runs of path separators into one.
func NormalizeRemotePath(p string) string {
	return repeatedSeparators.ReplaceAllString(p, models.PathSeparator)
}

// ParentPath returns the parent of a remote path with a trailing separator,
// or "" when the path has no parent.
func ParentPath(remotePath string) string {
	p := strings.TrimRight(remotePath, models.PathSeparator)
	i := strings.LastIndex(p, models.PathSeparator)
	if p == "" || i < 0 {
		return ""
	}
	parent := p[:i]
	if !strings.HasSuffix(parent, models.PathSeparator) {
		parent += models.PathSeparator
	}
	return parent
}

// String implements fmt.Stringer for log fields.
func (l Layout) String() string {
	return fmt.Sprintf("%s/%s (files %s)", l.StorageRoot, l.DataFolder, l.FilesDir)
}
