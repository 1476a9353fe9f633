package filestorage

import (
	"mime"
	"strings"
)

// IsValidExtFilename reports whether name is a valid file name on external
// storage (FAT family rules).
func IsValidExtFilename(name string) bool {
	for _, c := range name {
		if !isValidExtFilenameChar(c) {
			return false
		}
	}
	return true
}

func isValidExtFilenameChar(c rune) bool {
	if c <= 0x1F {
		return false
	}
	switch c {
	case '"', '*', ':', '/', '<', '>', '?', '\\', '|', 0x7F:
		return false
	}
	return true
}

// MimeTypeFromName returns the mime type for the extension of path, without
// parameters, or "" when the extension is unknown.
func MimeTypeFromName(path string) string {
	ext := ""
	if pos := strings.LastIndexByte(path, '.'); pos >= 0 {
		ext = path[pos:]
	}
	if ext == "" || ext == "." {
		return ""
	}
	t := mime.TypeByExtension(strings.ToLower(ext))
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return mediaType
}
