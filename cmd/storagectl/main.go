// Package main provides a CLI for inspecting and managing the synced-files
// cache of a FruitSalade mobile account.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/disiqueira/gotree/v3"
	"golang.org/x/term"

	"github.com/fruitsalade/fruitsalade/mobile/internal/config"
	"github.com/fruitsalade/fruitsalade/mobile/internal/filestorage"
	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/internal/metrics"
	"github.com/fruitsalade/fruitsalade/mobile/internal/userinfo"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	err = run(context.Background(), cfg, os.Args[1], os.Args[2:])

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logging.Warn("failed to write metrics", logging.String("file", cfg.MetricsFile), logging.Err(werr))
		}
	}
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	layout := filestorage.Layout{
		StorageRoot: cfg.StoragePath,
		DataFolder:  cfg.DataFolder,
		FilesDir:    cfg.FilesDir,
	}

	switch cmd {
	case "paths":
		return cmdPaths(layout, args)
	case "upload-path":
		return cmdUploadPath(args)
	case "volumes":
		return cmdVolumes(cfg)
	case "friendly":
		return cmdFriendly(cfg, args)
	case "space":
		return cmdSpace(layout, args)
	case "cp", "mv", "cpdir":
		return withCatalog(ctx, cfg, false, func(cat catalog) error {
			return cmdCopy(ctx, cat, cmd, args)
		})
	case "rm":
		return withCatalog(ctx, cfg, false, func(cat catalog) error {
			return cmdRemove(ctx, cat, args)
		})
	case "index":
		return withCatalog(ctx, cfg, true, func(cat catalog) error {
			return cmdIndex(ctx, os.Stdout, layout, cat, args)
		})
	case "ls":
		return withCatalog(ctx, cfg, true, func(cat catalog) error {
			return cmdList(ctx, os.Stdout, cat, args)
		})
	case "relink":
		return withCatalog(ctx, cfg, true, func(cat catalog) error {
			return cmdRelink(ctx, os.Stdout, layout, cat, args)
		})
	case "du":
		return cmdDiskUsage(args)
	case "profile":
		return cmdProfile(ctx, cfg, args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage() {
	fmt.Println(`FruitSalade storage CLI

Usage: storagectl <command> [flags] [args]

Commands:
  paths <account>                 Show the cache and temp paths of an account
  upload-path [flags] <file>      Show the remote path an instant upload goes to
  volumes                         List storage volumes
  friendly <path>                 Shorten a local path for display
  space [flags]                   Check free space for a download
  cp <src> <dst>                  Copy a file
  mv <src> <dst>                  Move a file (copy, then delete)
  cpdir <src> <dst>               Copy a folder tree; dst must not exist
  rm <path>                       Delete a file or folder tree
  index <account>                 Record the local copies of an account (needs DATABASE_URL)
  ls <account> <remote-folder>    List recorded files, favorites first (needs DATABASE_URL)
  relink <account> <remote-path>  Relink a record to its copy in the save path (needs DATABASE_URL)
  du <dir>                        Show a folder tree with sizes
  profile [flags]                 Fetch and show the account profile
  help                            Show this help message

Environment:
  FRUITSALADE_STORAGE_PATH, FRUITSALADE_DATA_FOLDER, FRUITSALADE_FILES_DIR,
  FRUITSALADE_EXTERNAL_STORAGE_DIR, FRUITSALADE_EXTERNAL_FILES_DIRS,
  FRUITSALADE_STORAGE_VOLUMES, FRUITSALADE_LEGACY_STORAGE_PERMISSION,
  FRUITSALADE_SERVER_URL, DATABASE_URL, LOG_LEVEL, LOG_FORMAT, METRICS_FILE

Examples:
  storagectl paths alice@cloud.example.com
  storagectl upload-path -remote /InstantUpload -sync-root /sdcard/DCIM -by-date /sdcard/DCIM/IMG_1.jpg
  storagectl space -size 1048576
  DATABASE_URL=postgres://localhost/fruitsalade storagectl ls alice@cloud.example.com /Photos
  storagectl profile -user alice`)
}

func cmdPaths(layout filestorage.Layout, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storagectl paths <account>")
	}
	account := args[0]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Save path\t%s\n", layout.SavePath(account))
	fmt.Fprintf(w, "Temp path\t%s\n", layout.TemporalPath(account))
	fmt.Fprintf(w, "App temp dir\t%s\n", layout.AppTempDirectoryPath())
	fmt.Fprintf(w, "Internal temp path\t%s\n", layout.InternalTemporalPath(account))
	fmt.Fprintf(w, "Encrypted temp path\t%s\n", layout.TemporalEncryptedFolderPath(account))
	return w.Flush()
}

func cmdUploadPath(args []string) error {
	fs := flag.NewFlagSet("upload-path", flag.ContinueOnError)
	remote := fs.String("remote", "/InstantUpload", "Remote folder uploads go to")
	syncRoot := fs.String("sync-root", "", "Local folder being synced")
	byDate := fs.Bool("by-date", false, "Sort uploads into date sub folders")
	rule := fs.String("rule", "YEAR_MONTH", "Sub folder rule: NONE, YEAR, YEAR_MONTH, YEAR_MONTH_DAY")
	taken := fs.Int64("date", 0, "Date taken in epoch milliseconds (default: file modification time)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: storagectl upload-path [flags] <file>")
	}

	subFolderRule, err := models.ParseSubFolderRule(*rule)
	if err != nil {
		return err
	}
	local := fs.Arg(0)
	if name := filepath.Base(local); !filestorage.IsValidExtFilename(name) {
		logging.Warn("file name not valid on external storage", logging.String("name", name))
	}

	dateTaken := *taken
	if dateTaken == 0 {
		info, err := os.Stat(local)
		if err != nil {
			return fmt.Errorf("stat %s: %w", local, err)
		}
		dateTaken = info.ModTime().UnixMilli()
	}

	fmt.Println(filestorage.InstantUploadFilePath(local, time.Local, *remote, *syncRoot, dateTaken, *byDate, subFolderRule))
	return nil
}

func volumeLister(cfg *config.Config) filestorage.VolumeLister {
	if len(cfg.StorageVolumes) > 0 {
		return filestorage.StaticVolumes(cfg.StorageVolumes)
	}
	legacy := cfg.LegacyStoragePermission
	return filestorage.LegacyVolumeLister{
		ExternalStorageDir:  cfg.ExternalStorageDir,
		ExternalFilesDirs:   cfg.ExternalFilesDirs,
		HasLegacyPermission: func() bool { return legacy },
	}
}

func cmdVolumes(cfg *config.Config) error {
	volumes := volumeLister(cfg).Volumes()
	if len(volumes) == 0 {
		fmt.Println("No storage volumes found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VOLUME\tNAME\tWRITABLE\tFREE")
	fmt.Fprintln(w, "------\t----\t--------\t----")
	for _, v := range volumes {
		free := "-"
		if n, err := filestorage.AvailableSpace(v); err == nil {
			free = formatSize(n)
		}
		writable := ""
		if filestorage.IsFolderWritable(v) {
			writable = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v,
			filestorage.FriendlyPath(v, volumes, cfg.ExternalStorageDir), writable, free)
	}
	return w.Flush()
}

func cmdFriendly(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storagectl friendly <path>")
	}
	fmt.Println(filestorage.FriendlyPath(args[0], volumeLister(cfg).Volumes(), cfg.ExternalStorageDir))
	return nil
}

func cmdSpace(layout filestorage.Layout, args []string) error {
	fs := flag.NewFlagSet("space", flag.ContinueOnError)
	size := fs.Int64("size", 0, "Size of the download in bytes")
	folder := fs.Bool("folder", false, "The download is a folder")
	local := fs.String("local", "", "Existing local copy of the folder")
	if err := fs.Parse(args); err != nil {
		return err
	}

	file := models.NewLocalFile(models.RootPath)
	file.FileLength = *size
	if *folder {
		file.MimeType = models.MimeTypeDirectory
		file.StoragePath = *local
	}

	ok, available, err := layout.CheckIfEnoughSpace(file)
	if err != nil {
		return err
	}

	fmt.Printf("Storage root: %s\n", layout.StorageRoot)
	fmt.Printf("Available:    %s\n", formatSize(available))
	if *folder {
		fmt.Printf("Local copy:   %s\n", formatSize(filestorage.LocalFolderSize(file)))
	}
	fmt.Printf("Required:     %s\n", formatSize(file.FileLength))
	if !ok {
		return fmt.Errorf("not enough space")
	}
	fmt.Println("Enough space")
	return nil
}

var copyOps = map[string]func(src, dst string) error{
	"cp":    filestorage.CopyFile,
	"mv":    filestorage.MoveFile,
	"cpdir": filestorage.CopyDirs,
}

// cmdCopy runs a copy or move and, when cat is set, adds the result to the
// media scan.
func cmdCopy(ctx context.Context, cat catalog, name string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: storagectl %s <src> <dst>", name)
	}
	src, dst := args[0], args[1]
	if err := copyOps[name](src, dst); err != nil {
		if filestorage.IsPartialCopy(err) {
			logging.Warn("copy stopped half-way, target left incomplete", logging.String("dst", dst))
		}
		return err
	}
	indexCopied(ctx, cat, name, src, dst)
	return nil
}

func cmdRemove(ctx context.Context, cat catalog, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storagectl rm <path>")
	}
	if cat == nil {
		return filestorage.DeleteRecursive(args[0])
	}
	return filestorage.DeleteRecursively(ctx, args[0], cat)
}

func cmdDiskUsage(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storagectl du <dir>")
	}
	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		fmt.Printf("%s (%s)\n", root, formatSize(info.Size()))
		return nil
	}

	tree := gotree.New(fmt.Sprintf("%s (%s)", root, formatSize(filestorage.FolderSize(root))))
	addChildren(tree, root)
	fmt.Print(tree.Print())
	return nil
}

func addChildren(node gotree.Tree, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		node.Add(fmt.Sprintf("<unreadable: %v>", err))
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			child := node.Add(fmt.Sprintf("%s/ (%s)", e.Name(), formatSize(filestorage.FolderSize(p))))
			addChildren(child, p)
			continue
		}
		size := int64(0)
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		node.Add(fmt.Sprintf("%s (%s)", e.Name(), formatSize(size)))
	}
}

func cmdProfile(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	serverURL := fs.String("server", cfg.ServerURL, "Server URL")
	user := fs.String("user", "", "User name for basic auth")
	token := fs.String("token", os.Getenv("FRUITSALADE_TOKEN"), "Bearer token (overrides basic auth)")
	timeout := fs.Duration("timeout", 30*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *serverURL == "" {
		return fmt.Errorf("server URL required (-server or FRUITSALADE_SERVER_URL)")
	}

	clientCfg := userinfo.Config{BaseURL: *serverURL, Timeout: *timeout, Token: *token}
	if *token == "" {
		username := *user
		if username == "" {
			fmt.Print("Username: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			username = strings.TrimSpace(line)
		}
		fmt.Print("App password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		clientCfg.Username, clientCfg.Password = username, string(password)
	}

	view := &textView{}
	ctrl := userinfo.NewController(userinfo.NewClient(clientCfg), view, nil)
	ctrl.Resume()
	ctrl.Open(logging.WithAccount(ctx, *user), nil)
	ctrl.Wait()
	ctrl.Destroy()
	return view.err
}

// textView renders the profile screen on stdout.
type textView struct {
	err error
}

func (v *textView) ShowLoading() {
	fmt.Println("Loading profile...")
}

func (v *textView) ShowProfile(info *models.UserInfo, details []userinfo.DetailItem) {
	v.header(info)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, d := range details {
		fmt.Fprintf(w, "%s\t%s\n", d.Description, d.Text)
	}
	w.Flush()
}

func (v *textView) ShowEmpty(info *models.UserInfo) {
	v.header(info)
	fmt.Println("No personal info set")
}

func (v *textView) ShowError(err error) {
	v.err = fmt.Errorf("retrieving user information: %w", err)
}

func (v *textView) header(info *models.UserInfo) {
	name := info.DisplayName
	if name == "" {
		name = info.ID
	}
	fmt.Println(name)
	fmt.Println(strings.Repeat("-", len(name)))
	if info.Quota != nil && info.Quota.Total > 0 {
		fmt.Printf("Quota: %s of %s used\n", formatSize(info.Quota.Used), formatSize(info.Quota.Total))
	}
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
