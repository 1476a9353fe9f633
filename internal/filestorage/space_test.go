package filestorage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

func TestHasEnoughSpace_File(t *testing.T) {
	file := models.NewLocalFile("/a.bin")
	file.MimeType = "application/octet-stream"
	file.FileLength = 100

	tests := []struct {
		available int64
		want      bool
	}{
		{99, false},
		{100, false},
		{101, true},
		{0, false},
	}
	for _, tt := range tests {
		if got := HasEnoughSpace(tt.available, file); got != tt.want {
			t.Errorf("HasEnoughSpace(%d) = %v, want %v", tt.available, got, tt.want)
		}
	}
}

func TestHasEnoughSpace_FileIgnoresLocalCopy(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "a.bin")
	writeFile(t, local, "0123456789")

	file := models.NewLocalFile("/a.bin")
	file.FileLength = 20
	file.StoragePath = local

	if HasEnoughSpace(15, file) {
		t.Error("file credited with bytes of its local copy")
	}
}

func TestHasEnoughSpace_Folder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one"), "0123456789012345678901234567890123456789") // 40 bytes

	folder := models.NewLocalFile("/photos/")
	folder.MimeType = models.MimeTypeDirectory
	folder.FileLength = 100
	folder.StoragePath = dir

	if HasEnoughSpace(60, folder) {
		t.Error("60 bytes reported enough for a 60 byte delta")
	}
	if !HasEnoughSpace(61, folder) {
		t.Error("61 bytes reported not enough for a 60 byte delta")
	}
}

func TestHasEnoughSpace_FolderNotDownloaded(t *testing.T) {
	folder := models.NewLocalFile("/photos/")
	folder.MimeType = models.MimeTypeDirectory
	folder.FileLength = 100

	if got := LocalFolderSize(folder); got != 0 {
		t.Errorf("LocalFolderSize = %d, want 0", got)
	}
	if HasEnoughSpace(100, folder) {
		t.Error("100 bytes reported enough for a 100 byte folder")
	}
	if !HasEnoughSpace(101, folder) {
		t.Error("101 bytes reported not enough for a 100 byte folder")
	}
}

func TestLocalFolderSize_UsesDownloadState(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), "12345")

	folder := models.NewLocalFile("/photos/")
	folder.MimeType = models.MimeTypeDirectory
	if folder.IsDown() || LocalFolderSize(folder) != 0 {
		t.Error("folder without a local copy reported bytes")
	}
	folder.StoragePath = dir
	if got := LocalFolderSize(folder); got != 5 {
		t.Errorf("LocalFolderSize = %d, want 5", got)
	}
}

func TestAvailableSpace(t *testing.T) {
	n, err := AvailableSpace(t.TempDir())
	if err != nil {
		t.Fatalf("AvailableSpace: %v", err)
	}
	if n < 0 {
		t.Errorf("AvailableSpace = %d", n)
	}
}

func TestCheckIfEnoughSpace(t *testing.T) {
	l := Layout{StorageRoot: t.TempDir(), DataFolder: "nextcloud"}
	file := models.NewLocalFile("/empty.txt")

	ok, avail, err := l.CheckIfEnoughSpace(file)
	if err != nil {
		t.Fatalf("CheckIfEnoughSpace: %v", err)
	}
	// An empty file fits unless the volume is completely full.
	if ok != (avail > 0) {
		t.Errorf("ok = %v with %d bytes available", ok, avail)
	}
}

func TestCheckIfEnoughSpace_Unknown(t *testing.T) {
	l := Layout{StorageRoot: filepath.Join(t.TempDir(), "missing", "root"), DataFolder: "nextcloud"}

	ok, avail, err := l.CheckIfEnoughSpace(models.NewLocalFile("/a.txt"))
	if ok || avail != 0 {
		t.Errorf("reported %v with %d bytes for an unreadable volume", ok, avail)
	}
	if !errors.Is(err, ErrSpaceUnknown) {
		t.Errorf("err = %v, want ErrSpaceUnknown", err)
	}
	if ReasonOf(err) != ReasonNotFound {
		t.Errorf("reason = %v, want the underlying not found", ReasonOf(err))
	}
}
