package filestorage

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// withLegacyPaths points the hard-coded legacy locations into a temp dir for
// the duration of the test.
func withLegacyPaths(t *testing.T, fallback, secondary string) {
	t.Helper()
	origFallback, origSecondary := defaultFallbackStoragePath, legacySecondaryStoragePath
	defaultFallbackStoragePath, legacySecondaryStoragePath = fallback, secondary
	t.Cleanup(func() {
		defaultFallbackStoragePath, legacySecondaryStoragePath = origFallback, origSecondary
	})
}

func TestLegacyVolumeLister(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	withLegacyPaths(t, missing, missing)

	tests := []struct {
		name   string
		env    map[string]string
		extDir string
		want   []string
	}{
		{
			name:   "external storage",
			env:    map[string]string{"EXTERNAL_STORAGE": "/mnt/sdcard"},
			extDir: "/storage/emulated/0",
			want:   []string{"/mnt/sdcard"},
		},
		{
			name:   "emulated with user id",
			env:    map[string]string{"EMULATED_STORAGE_TARGET": "/storage/emulated"},
			extDir: "/storage/emulated/10",
			want:   []string{"/storage/emulated/10"},
		},
		{
			name:   "emulated trailing slash",
			env:    map[string]string{"EMULATED_STORAGE_TARGET": "/storage/emulated"},
			extDir: "/storage/emulated/0/",
			want:   []string{"/storage/emulated/0"},
		},
		{
			name:   "emulated without user id",
			env:    map[string]string{"EMULATED_STORAGE_TARGET": "/storage/emulated"},
			extDir: "/mnt/shell/emulated/legacy",
			want:   []string{"/storage/emulated"},
		},
		{
			name: "secondary storages",
			env: map[string]string{
				"EXTERNAL_STORAGE":  "/mnt/sdcard",
				"SECONDARY_STORAGE": "/mnt/ext1:/mnt/ext2",
			},
			want: []string{"/mnt/sdcard", "/mnt/ext1", "/mnt/ext2"},
		},
		{
			name:   "nothing set",
			env:    map[string]string{},
			extDir: "/storage/emulated/0",
			want:   []string{"/storage/emulated/0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := LegacyVolumeLister{Getenv: mapEnv(tt.env), ExternalStorageDir: tt.extDir}
			if got := lister.Volumes(); !slices.Equal(got, tt.want) {
				t.Errorf("Volumes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLegacyVolumeLister_FallbackStorage(t *testing.T) {
	fallback := t.TempDir()
	withLegacyPaths(t, fallback, filepath.Join(fallback, "missing"))

	lister := LegacyVolumeLister{Getenv: mapEnv(nil), ExternalStorageDir: "/storage/emulated/0"}
	if got := lister.Volumes(); !slices.Equal(got, []string{fallback}) {
		t.Errorf("Volumes() = %v, want [%s]", got, fallback)
	}
}

func TestLegacyVolumeLister_ExternalFilesDirs(t *testing.T) {
	root := t.TempDir()
	card := filepath.Join(root, "ABCD-1234")
	if err := os.MkdirAll(filepath.Join(card, "Android", "data", "com.example"), 0o755); err != nil {
		t.Fatal(err)
	}
	wantCard, err := filepath.EvalSymlinks(card)
	if err != nil {
		t.Fatal(err)
	}
	withLegacyPaths(t, filepath.Join(root, "missing"), filepath.Join(root, "missing1"))

	lister := LegacyVolumeLister{
		Getenv:             mapEnv(map[string]string{"EXTERNAL_STORAGE": "/mnt/sdcard"}),
		ExternalStorageDir: "/storage/emulated/0",
		ExternalFilesDirs: []string{
			filepath.Join(card, "Android", "data", "com.example"),
			"",
			filepath.Join(root, "not-an-app-dir"),
			filepath.Join(root, "gone", "Android", "data", "com.example"),
		},
	}

	want := []string{"/mnt/sdcard", wantCard}
	if got := lister.Volumes(); !slices.Equal(got, want) {
		t.Errorf("Volumes() = %v, want %v", got, want)
	}
}

func TestLegacyVolumeLister_LegacyPermission(t *testing.T) {
	root := t.TempDir()
	card := filepath.Join(root, "card")
	if err := os.MkdirAll(filepath.Join(card, "Android", "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	wantCard, err := filepath.EvalSymlinks(card)
	if err != nil {
		t.Fatal(err)
	}
	withLegacyPaths(t, filepath.Join(root, "missing"), filepath.Join(root, "missing1"))

	lister := LegacyVolumeLister{
		Getenv: mapEnv(map[string]string{
			"EXTERNAL_STORAGE":  "/mnt/sdcard",
			"SECONDARY_STORAGE": "/mnt/ext1",
		}),
		ExternalFilesDirs:   []string{filepath.Join(card, "Android", "data")},
		HasLegacyPermission: func() bool { return true },
	}

	if got := lister.Volumes(); !slices.Equal(got, []string{wantCard}) {
		t.Errorf("Volumes() = %v, want [%s]", got, wantCard)
	}
}

func TestLegacyVolumeLister_SecondaryFallbackDeduped(t *testing.T) {
	card := t.TempDir()
	withLegacyPaths(t, filepath.Join(card, "missing"), card)

	lister := LegacyVolumeLister{Getenv: mapEnv(map[string]string{
		"EXTERNAL_STORAGE":  "/mnt/sdcard",
		"SECONDARY_STORAGE": card,
	})}

	want := []string{"/mnt/sdcard", card}
	if got := lister.Volumes(); !slices.Equal(got, want) {
		t.Errorf("Volumes() = %v, want %v", got, want)
	}
}

func TestStaticVolumes(t *testing.T) {
	vols := StaticVolumes{"/a", "/b"}
	got := vols.Volumes()
	got[0] = "/changed"
	if vols[0] != "/a" {
		t.Error("Volumes() returned the backing slice")
	}
}

func TestFriendlyPath(t *testing.T) {
	const internal = "/storage/emulated/0"
	volumes := []string{internal, "/storage/ABC"}

	tests := []struct {
		path, want string
	}{
		{"/storage/emulated/0/Movies", "Internal Storage Movies"},
		{"/storage/emulated/0/DCIM", "Internal Storage Camera"},
		{"/storage/emulated/0/Download", "Internal Storage Downloads"},
		{"/storage/emulated/0", "Internal Storage"},
		{"/storage/ABC/some/dir", "ABC some/dir"},
		{"/storage/ABC/Music", "ABC Music"},
		{"/storage/ABC", "ABC"},
		{"/mnt/other/dir", "/mnt/other/dir"},
	}
	for _, tt := range tests {
		if got := FriendlyPath(tt.path, volumes, internal); got != tt.want {
			t.Errorf("FriendlyPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStandardDirectoryFromPath(t *testing.T) {
	if d, ok := StandardDirectoryFromPath("DCIM"); !ok || d != DirCamera {
		t.Errorf("DCIM = %+v, %v", d, ok)
	}
	if _, ok := StandardDirectoryFromPath("dcim"); ok {
		t.Error("lookup is case-insensitive")
	}
	if _, ok := StandardDirectoryFromPath("Pictures/2019"); ok {
		t.Error("nested path matched a standard directory")
	}
	if n := len(StandardDirectories()); n != 6 {
		t.Errorf("catalog has %d entries, want 6", n)
	}
}
