package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fruitsalade/fruitsalade/mobile/internal/config"
	"github.com/fruitsalade/fruitsalade/mobile/internal/filestorage"
	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/internal/metadata/postgres"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

// catalog is the file record and media scan store the CLI keeps in step
// with the disk.
type catalog interface {
	filestorage.MediaIndex
	SaveFile(ctx context.Context, account string, file *models.LocalFile) error
	FileByRemotePath(ctx context.Context, account, remotePath string) (*models.LocalFile, error)
	ListChildren(ctx context.Context, parentID int64) ([]*models.LocalFile, error)
	IndexMedia(ctx context.Context, path, mimeType string) error
	MediaIndexed(ctx context.Context, path string) (bool, error)
}

var _ catalog = (*postgres.Store)(nil)

// withCatalog runs fn against the database named by DATABASE_URL. When none
// is configured fn gets a nil catalog unless required is set.
func withCatalog(ctx context.Context, cfg *config.Config, required bool, fn func(catalog) error) error {
	if cfg.DatabaseURL == "" {
		if required {
			return fmt.Errorf("DATABASE_URL required")
		}
		return fn(nil)
	}

	store, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	defer store.UpdateConnectionMetrics()

	return fn(store)
}

// cmdIndex records every file and folder below the save path of an account
// and adds the files to the media scan.
func cmdIndex(ctx context.Context, out io.Writer, layout filestorage.Layout, cat catalog, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storagectl index <account>")
	}
	account := args[0]
	root := layout.SavePath(account)
	ctx = logging.WithAccount(ctx, account)

	ids := make(map[string]int64)
	var files, folders int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		file, err := filestorage.LocalFileFromDisk(root, path)
		if err != nil {
			return err
		}
		file.ParentID = ids[filestorage.ParentPath(file.RemotePath)]
		if err := cat.SaveFile(ctx, account, file); err != nil {
			return err
		}
		ids[file.RemotePath] = file.ID

		if file.IsFolder() {
			folders++
			return nil
		}
		files++
		if err := cat.IndexMedia(ctx, path, file.MimeType); err != nil {
			logging.WithContext(ctx).Warn("media indexing failed", logging.String("path", path), logging.Err(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", root, err)
	}

	fmt.Fprintf(out, "Indexed %d files and %d folders below %s\n", files, folders, root)
	return nil
}

// cmdList prints the records below a remote folder, favorites first.
func cmdList(ctx context.Context, out io.Writer, cat catalog, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: storagectl ls <account> <remote-folder>")
	}
	account, folder := args[0], args[1]
	if !strings.HasSuffix(folder, models.PathSeparator) {
		folder += models.PathSeparator
	}

	parent, err := cat.FileByRemotePath(ctx, account, folder)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("no record for %s", folder)
	}
	children, err := cat.ListChildren(ctx, parent.ID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		fmt.Fprintln(out, "Empty folder")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tLOCAL")
	fmt.Fprintln(w, "----\t----\t--------\t-----")
	for _, f := range filestorage.SortByModifiedDescFavoritesFirst(children) {
		name := filepath.Base(f.RemotePath)
		if f.IsFolder() {
			name += models.PathSeparator
		}
		if f.Favorite {
			name = "* " + name
		}
		local := ""
		if f.IsDown() {
			local = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, formatSize(f.FileLength),
			time.UnixMilli(f.ModificationTimestamp).Format(time.DateTime), local)
	}
	return w.Flush()
}

// cmdRelink links a record to a copy found in the default save path and
// makes sure that copy is in the media scan.
func cmdRelink(ctx context.Context, out io.Writer, layout filestorage.Layout, cat catalog, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: storagectl relink <account> <remote-path>")
	}
	account, remotePath := args[0], args[1]
	ctx = logging.WithAccount(ctx, account)

	file, err := cat.FileByRemotePath(ctx, account, remotePath)
	if err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("no record for %s", remotePath)
	}

	if layout.SearchForLocalFileInDefaultPath(file, account) {
		if err := cat.SaveFile(ctx, account, file); err != nil {
			return err
		}
		fmt.Fprintf(out, "Relinked %s to %s\n", remotePath, file.StoragePath)
	} else if _, err := os.Stat(file.StoragePath); !file.IsDown() || err != nil {
		return fmt.Errorf("no local copy of %s in %s", remotePath, layout.DefaultSavePathFor(account, file))
	} else {
		fmt.Fprintf(out, "%s already linked to %s\n", remotePath, file.StoragePath)
	}

	indexed, err := cat.MediaIndexed(ctx, file.StoragePath)
	if err != nil {
		return err
	}
	if !indexed {
		if err := cat.IndexMedia(ctx, file.StoragePath, file.MimeType); err != nil {
			return err
		}
	}
	return nil
}

// indexCopied adds the files now present at dst to the media scan. A moved
// file is also dropped from it at src.
func indexCopied(ctx context.Context, cat catalog, op, src, dst string) {
	if cat == nil {
		return
	}
	src, _ = filepath.Abs(src)
	dst, _ = filepath.Abs(dst)
	if op == "mv" {
		if err := cat.DeleteFileInMediaScan(ctx, src); err != nil {
			logging.Warn("media index invalidation failed", logging.String("path", src), logging.Err(err))
		}
	}

	err := filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		mimeType := filestorage.MimeTypeFromName(path)
		if err := cat.IndexMedia(ctx, path, mimeType); err != nil {
			logging.Warn("media indexing failed", logging.String("path", path), logging.Err(err))
		}
		return nil
	})
	if err != nil {
		logging.Warn("media indexing stopped", logging.String("path", dst), logging.Err(err))
	}
}
