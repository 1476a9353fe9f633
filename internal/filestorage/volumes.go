package filestorage

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
)

// Legacy storage locations checked when nothing better is known.
var (
	defaultFallbackStoragePath = "/storage/sdcard0"
	legacySecondaryStoragePath = "/storage/sdcard1"
)

const (
	externalFilesSuffix  = "/Android/data"
	internalStorageLabel = "Internal Storage"
)

// VolumeLister lists the roots of the storage volumes a user can pick local
// folders from.
type VolumeLister interface {
	Volumes() []string
}

// StaticVolumes is a fixed volume list, e.g. from configuration or from the
// storage API of a current platform.
type StaticVolumes []string

// Volumes implements VolumeLister.
func (s StaticVolumes) Volumes() []string {
	return slices.Clone(s)
}

// LegacyVolumeLister discovers volumes the way pre-scoped-storage Android
// devices exposed them: EXTERNAL_STORAGE, SECONDARY_STORAGE and
// EMULATED_STORAGE_TARGET, then the per-app external files directories with
// their "/Android/data" suffix stripped.
//
// It exists for compatibility with old devices. New platforms should plug in
// a VolumeLister backed by their own storage API.
type LegacyVolumeLister struct {
	// Getenv reads the environment; nil means os.Getenv.
	Getenv func(string) string
	// ExternalStorageDir is the platform default external storage directory.
	ExternalStorageDir string
	// ExternalFilesDirs are the app's external files directories, one per
	// mounted volume.
	ExternalFilesDirs []string
	// HasLegacyPermission reports whether broad storage write access is
	// granted; nil means it is not.
	HasLegacyPermission func() bool
}

// Volumes implements VolumeLister.
func (v LegacyVolumeLister) Volumes() []string {
	getenv := v.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	var rv []string
	rawExternalStorage := getenv("EXTERNAL_STORAGE")
	rawSecondaryStorages := getenv("SECONDARY_STORAGE")
	rawEmulatedStorageTarget := getenv("EMULATED_STORAGE_TARGET")

	if rawEmulatedStorageTarget == "" {
		// Physical external storage, plain paths.
		switch {
		case rawExternalStorage != "":
			rv = append(rv, rawExternalStorage)
		case exists(defaultFallbackStoragePath):
			rv = append(rv, defaultFallbackStoragePath)
		default:
			rv = append(rv, v.ExternalStorageDir)
		}
	} else {
		// Emulated storage has the user id burned into the path.
		if userID := numericLastSegment(v.ExternalStorageDir); userID != "" {
			rv = append(rv, rawEmulatedStorageTarget+"/"+userID)
		} else {
			rv = append(rv, rawEmulatedStorageTarget)
		}
	}

	if rawSecondaryStorages != "" {
		rv = append(rv, strings.Split(rawSecondaryStorages, ":")...)
	}

	if v.HasLegacyPermission != nil && v.HasLegacyPermission() {
		rv = rv[:0]
	}

	for _, p := range v.extSdCardPaths() {
		if !slices.Contains(rv, p) && canListFiles(p) {
			rv = append(rv, p)
		}
	}
	return rv
}

func (v LegacyVolumeLister) extSdCardPaths() []string {
	var paths []string
	for _, dir := range v.ExternalFilesDirs {
		if dir == "" {
			continue
		}
		index := strings.LastIndex(dir, externalFilesSuffix)
		if index < 0 {
			logging.Warn("unexpected external files dir", logging.String("dir", dir))
			continue
		}
		p := dir[:index]
		if canonical, err := filepath.EvalSymlinks(p); err == nil {
			if abs, err := filepath.Abs(canonical); err == nil {
				p = abs
			}
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		paths = append(paths, legacySecondaryStoragePath)
	}
	return paths
}

func numericLastSegment(p string) string {
	segments := strings.Split(strings.TrimRight(p, "/"), "/")
	last := segments[len(segments)-1]
	if _, err := strconv.Atoi(last); err != nil {
		return ""
	}
	return last
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func canListFiles(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir() && canRead(p)
}

// FriendlyPath shortens a local path for display, e.g.
// "/storage/emulated/0/Movies" becomes "Internal Storage Movies" and
// "/storage/ABC/some/dir" becomes "ABC some/dir". Paths outside every volume
// are returned unchanged.
func FriendlyPath(path string, volumes []string, externalStorageDir string) string {
	device := ""
	for _, v := range volumes {
		if v != "" && strings.HasPrefix(path, v) {
			device = v
			break
		}
	}
	if device == "" {
		return path
	}

	folder := ""
	if len(path) > len(device)+1 {
		folder = path[len(device)+1:]
	}
	if dir, ok := StandardDirectoryFromPath(folder); ok {
		folder = dir.DisplayName
	}

	label := filepath.Base(device)
	if externalStorageDir != "" && strings.HasPrefix(device, externalStorageDir) {
		label = internalStorageLabel
	}
	return strings.TrimSpace(label + " " + folder)
}

// StandardDirectory is a well-known media folder on shared storage.
type StandardDirectory struct {
	Name        string // folder name on the device
	DisplayName string
	Icon        string
}

var (
	DirPictures  = StandardDirectory{Name: "Pictures", DisplayName: "Pictures", Icon: "ic_image_grey600"}
	DirCamera    = StandardDirectory{Name: "DCIM", DisplayName: "Camera", Icon: "ic_camera"}
	DirDocuments = StandardDirectory{Name: "Documents", DisplayName: "Documents", Icon: "ic_document_grey600"}
	DirDownloads = StandardDirectory{Name: "Download", DisplayName: "Downloads", Icon: "ic_download_grey600"}
	DirMovies    = StandardDirectory{Name: "Movies", DisplayName: "Movies", Icon: "ic_movie_grey600"}
	DirMusic     = StandardDirectory{Name: "Music", DisplayName: "Music", Icon: "ic_music_grey600"}
)

// StandardDirectories returns the catalog of standard directories.
func StandardDirectories() []StandardDirectory {
	return []StandardDirectory{DirPictures, DirCamera, DirDocuments, DirDownloads, DirMovies, DirMusic}
}

// StandardDirectoryFromPath returns the standard directory named exactly p.
func StandardDirectoryFromPath(p string) (StandardDirectory, bool) {
	for _, d := range StandardDirectories() {
		if d.Name == p {
			return d, true
		}
	}
	return StandardDirectory{}, false
}
