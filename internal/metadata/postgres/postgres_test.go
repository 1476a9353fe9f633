package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fruitsalade/fruitsalade/mobile/internal/filestorage"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

var (
	_ filestorage.MediaIndex = (*Store)(nil)
	_ filestorage.FileLookup = (*Store)(nil)
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := New(url)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// A unique account keeps runs independent of each other.
	return s, fmt.Sprintf("test-%d@localhost", time.Now().UnixNano())
}

func TestSaveAndLookup(t *testing.T) {
	s, account := testStore(t)
	ctx := context.Background()

	file := models.NewLocalFile("/docs/a.txt")
	file.MimeType = "text/plain"
	file.FileLength = 42
	file.Tags = []string{"work", "draft"}
	if err := s.SaveFile(ctx, account, file); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if file.ID == 0 {
		t.Fatal("no id assigned")
	}

	got, err := s.FileByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("FileByID: %v", err)
	}
	if got == nil || got.RemotePath != "/docs/a.txt" || got.FileLength != 42 || len(got.Tags) != 2 {
		t.Fatalf("FileByID = %+v", got)
	}
	if got.StoragePath != "" {
		t.Errorf("StoragePath = %q, want empty", got.StoragePath)
	}

	file.FileLength = 43
	id := file.ID
	if err := s.SaveFile(ctx, account, file); err != nil {
		t.Fatalf("SaveFile update: %v", err)
	}
	if file.ID != id {
		t.Errorf("update changed id from %d to %d", id, file.ID)
	}
	got, err = s.FileByRemotePath(ctx, account, "/docs/a.txt")
	if err != nil || got == nil || got.FileLength != 43 {
		t.Errorf("FileByRemotePath = %+v, %v", got, err)
	}

	missing, err := s.FileByID(ctx, -1)
	if err != nil || missing != nil {
		t.Errorf("FileByID(missing) = %+v, %v", missing, err)
	}
}

func TestDeleteFileInMediaScan(t *testing.T) {
	s, account := testStore(t)
	ctx := context.Background()
	local := "/storage/emulated/0/nextcloud/" + account + "/photo.jpg"

	file := models.NewLocalFile("/photo.jpg")
	file.StoragePath = local
	if err := s.SaveFile(ctx, account, file); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if err := s.IndexMedia(ctx, local, "image/jpeg"); err != nil {
		t.Fatalf("IndexMedia: %v", err)
	}

	if err := s.DeleteFileInMediaScan(ctx, local); err != nil {
		t.Fatalf("DeleteFileInMediaScan: %v", err)
	}

	indexed, err := s.MediaIndexed(ctx, local)
	if err != nil || indexed {
		t.Errorf("MediaIndexed = %v, %v", indexed, err)
	}
	got, err := s.FileByID(ctx, file.ID)
	if err != nil || got == nil || got.StoragePath != "" {
		t.Errorf("record not unlinked: %+v, %v", got, err)
	}
}

func TestCheckEncryptionStatusThroughStore(t *testing.T) {
	s, account := testStore(t)
	ctx := context.Background()

	root := models.NewLocalFile(models.RootPath)
	root.MimeType = models.MimeTypeDirectory
	if err := s.SaveFile(ctx, account, root); err != nil {
		t.Fatal(err)
	}
	secret := models.NewLocalFile("/secret/")
	secret.MimeType = models.MimeTypeDirectory
	secret.Encrypted = true
	secret.ParentID = root.ID
	if err := s.SaveFile(ctx, account, secret); err != nil {
		t.Fatal(err)
	}
	doc := models.NewLocalFile("/secret/doc.md")
	doc.ParentID = secret.ID
	if err := s.SaveFile(ctx, account, doc); err != nil {
		t.Fatal(err)
	}

	encrypted, err := filestorage.CheckEncryptionStatus(ctx, doc, s)
	if err != nil {
		t.Fatalf("CheckEncryptionStatus: %v", err)
	}
	if !encrypted {
		t.Error("file below an encrypted folder reported unencrypted")
	}

	children, err := s.ListChildren(ctx, secret.ID)
	if err != nil || len(children) != 1 || children[0].ID != doc.ID {
		t.Errorf("ListChildren = %+v, %v", children, err)
	}
}
