package filestorage

import (
	"strings"
	"testing"
	"time"

	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

var testLayout = Layout{StorageRoot: "/data/app", DataFolder: "nextcloud", FilesDir: "/data/user/0/app/files"}

func TestSavePath(t *testing.T) {
	tests := []struct {
		account, want string
	}{
		// '@' stays unencoded so folders created by earlier releases keep matching.
		{"user@nc.example.com", "/data/app/nextcloud/user@nc.example.com"},
		{"user:8080@nc.example.com", "/data/app/nextcloud/user%3A8080@nc.example.com"},
		{"jörg@host", "/data/app/nextcloud/j%C3%B6rg@host"},
		{"a b/c", "/data/app/nextcloud/a%20b%2Fc"},
		{"keep_-!.~'()*", "/data/app/nextcloud/keep_-!.~'()*"},
	}
	for _, tt := range tests {
		if got := testLayout.SavePath(tt.account); got != tt.want {
			t.Errorf("SavePath(%q) = %q, want %q", tt.account, got, tt.want)
		}
	}
}

func TestDefaultSavePathFor(t *testing.T) {
	accounts := []string{"user@nc.example.com", "admin@localhost:8443", "x"}
	remotes := []string{"/", "/a.txt", "/Photos/2019/img.jpg", "/with space/ä.pdf"}

	for _, a := range accounts {
		for _, r := range remotes {
			file := models.NewLocalFile(r)
			got := testLayout.DefaultSavePathFor(a, file)
			if !strings.HasPrefix(got, testLayout.SavePath(a)) {
				t.Errorf("DefaultSavePathFor(%q, %q) = %q, missing save path prefix", a, r, got)
			}
			if !strings.HasSuffix(got, r) {
				t.Errorf("DefaultSavePathFor(%q, %q) = %q, missing remote suffix", a, r, got)
			}
		}
	}
}

func TestTemporaryPaths(t *testing.T) {
	const account = "user:1@host"

	if got, want := testLayout.TemporalPath(account), "/data/app/nextcloud/tmp/user%3A1@host"; got != want {
		t.Errorf("TemporalPath = %q, want %q", got, want)
	}
	if got, want := testLayout.AppTempDirectoryPath(), "/data/user/0/app/files/nextcloud/tmp/"; got != want {
		t.Errorf("AppTempDirectoryPath = %q, want %q", got, want)
	}
	if got, want := testLayout.InternalTemporalPath(account), "/data/user/0/app/files/nextcloud/tmp/user%3A1@host"; got != want {
		t.Errorf("InternalTemporalPath = %q, want %q", got, want)
	}
	if got, want := testLayout.TemporalEncryptedFolderPath(account), "/data/user/0/app/files/user:1@host/temp_encrypted_folder"; got != want {
		t.Errorf("TemporalEncryptedFolderPath = %q, want %q", got, want)
	}
}

func TestSubPathFromDate(t *testing.T) {
	const taken = int64(1569918628000) // 2019-10-01T08:30:28Z

	tests := []struct {
		date int64
		rule models.SubFolderRule
		want string
	}{
		{taken, models.SubFolderYear, "2019/"},
		{taken, models.SubFolderYearMonth, "2019/10/"},
		{taken, models.SubFolderYearMonthDay, "2019/10/01/"},
		{taken, models.SubFolderNone, ""},
		{0, models.SubFolderYear, ""},
		{0, models.SubFolderYearMonth, ""},
		{0, models.SubFolderYearMonthDay, ""},
		{0, models.SubFolderNone, ""},
	}
	for _, tt := range tests {
		if got := SubPathFromDate(tt.date, time.UTC, tt.rule); got != tt.want {
			t.Errorf("SubPathFromDate(%d, %v) = %q, want %q", tt.date, tt.rule, got, tt.want)
		}
	}
}

func TestInstantUploadFilePath(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		byDate    bool
		dateTaken int64
		want      string
	}{
		{"subfolder", "/sdcard/DCIM/subfolder/file.jpg", false, 123123123, "/Camera/subfolder/file.jpg"},
		{"no subfolder", "/sdcard/DCIM/file.jpg", false, 123123123, "/Camera/file.jpg"},
		{"by date with zero date", "/sdcard/DCIM/file.jpg", true, 0, "/Camera/file.jpg"},
		{"by date", "/sdcard/DCIM/file.jpg", true, 1569918628000, "/Camera/2019/10/file.jpg"},
		{"by date with subfolder", "/sdcard/DCIM/subfolder/file.jpg", true, 1569918628000, "/Camera/2019/10/subfolder/file.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InstantUploadFilePath(tt.file, time.UTC, "/Camera", "/sdcard/DCIM",
				tt.dateTaken, tt.byDate, models.SubFolderYearMonth)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstantUploadFilePath_Normalized(t *testing.T) {
	inputs := []struct {
		file, remote, local string
	}{
		{"/sdcard/DCIM/a/b/c.jpg", "/Camera/", "/sdcard/DCIM/"},
		{"/sdcard/DCIM/c.jpg", "//", "/sdcard/DCIM"},
		{"/sdcard/DCIM/x/c.jpg", "/Camera//Uploads/", ""},
	}
	for _, in := range inputs {
		got := InstantUploadFilePath(in.file, time.UTC, in.remote, in.local, 1569918628000, true, models.SubFolderYearMonthDay)
		if strings.Contains(got, "//") {
			t.Errorf("InstantUploadFilePath(%q, %q, %q) = %q, contains repeated separators", in.file, in.remote, in.local, got)
		}
		if !strings.HasSuffix(got, "/c.jpg") {
			t.Errorf("InstantUploadFilePath(%q) = %q, lost file name", in.file, got)
		}
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/a/b/c.txt", "/a/b/"},
		{"/a/b/", "/a/"},
		{"/a", "/"},
		{"/", ""},
		{"a", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParentPath(tt.path); got != tt.want {
			t.Errorf("ParentPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsValidExtFilename(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"ünïcode ok.txt", true},
		{"a:b", false},
		{"a/b", false},
		{"what?", false},
		{"tab\there", false},
		{"del\x7f", false},
		{"", true},
	}
	for _, tt := range tests {
		if got := IsValidExtFilename(tt.name); got != tt.want {
			t.Errorf("IsValidExtFilename(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMimeTypeFromName(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/a/photo.JPG", "image/jpeg"},
		{"index.html", "text/html"},
		{"book.pdf", "application/pdf"},
		{"archive.unknownext", ""},
		{"noextension", ""},
		{"trailingdot.", ""},
	}
	for _, tt := range tests {
		if got := MimeTypeFromName(tt.path); got != tt.want {
			t.Errorf("MimeTypeFromName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
