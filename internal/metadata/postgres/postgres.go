// Package postgres provides a PostgreSQL-backed index of local file records
// and of the media scan catalog.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/lib/pq"

	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/internal/metrics"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// Store is a PostgreSQL file index. It satisfies filestorage.MediaIndex and
// filestorage.FileLookup.
type Store struct {
	db *sql.DB
}

// New opens the database and checks the connection.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpdateConnectionMetrics updates the database connection metrics.
func (s *Store) UpdateConnectionMetrics() {
	metrics.SetDBConnectionsOpen(s.db.Stats().OpenConnections)
}

// Migrate applies the embedded schema migrations in name order. Every
// migration is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}

	for _, f := range files {
		logging.Info("running migration", logging.String("file", path.Base(f)))
		content, err := migrationsFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
	}
	return nil
}

const fileColumns = `id, parent_id, remote_path, decrypted_remote_path, mime_type, file_length,
	creation_timestamp, modification_timestamp, upload_timestamp, etag, permissions,
	remote_id, local_id, favorite, encrypted, tags, storage_path, last_sync_date_for_data`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.LocalFile, error) {
	var f models.LocalFile
	var storagePath sql.NullString
	if err := row.Scan(&f.ID, &f.ParentID, &f.RemotePath, &f.DecryptedRemotePath, &f.MimeType,
		&f.FileLength, &f.CreationTimestamp, &f.ModificationTimestamp, &f.UploadTimestamp,
		&f.Etag, &f.Permissions, &f.RemoteID, &f.LocalID, &f.Favorite, &f.Encrypted,
		pq.Array(&f.Tags), &storagePath, &f.LastSyncDateForData); err != nil {
		return nil, err
	}
	f.StoragePath = storagePath.String
	return &f, nil
}

// SaveFile inserts or updates the record of file for account, keyed by its
// remote path, and stores the assigned id in file.ID.
func (s *Store) SaveFile(ctx context.Context, account string, file *models.LocalFile) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("save_file", time.Since(start)) }()

	storagePath := sql.NullString{String: file.StoragePath, Valid: file.StoragePath != ""}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO local_files (account, parent_id, remote_path, decrypted_remote_path, mime_type,
			file_length, creation_timestamp, modification_timestamp, upload_timestamp, etag,
			permissions, remote_id, local_id, favorite, encrypted, tags, storage_path,
			last_sync_date_for_data, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			COALESCE($16::text[], '{}'), $17, $18, NOW())
		 ON CONFLICT (account, remote_path) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			decrypted_remote_path = EXCLUDED.decrypted_remote_path,
			mime_type = EXCLUDED.mime_type,
			file_length = EXCLUDED.file_length,
			creation_timestamp = EXCLUDED.creation_timestamp,
			modification_timestamp = EXCLUDED.modification_timestamp,
			upload_timestamp = EXCLUDED.upload_timestamp,
			etag = EXCLUDED.etag,
			permissions = EXCLUDED.permissions,
			remote_id = EXCLUDED.remote_id,
			local_id = EXCLUDED.local_id,
			favorite = EXCLUDED.favorite,
			encrypted = EXCLUDED.encrypted,
			tags = EXCLUDED.tags,
			storage_path = EXCLUDED.storage_path,
			last_sync_date_for_data = EXCLUDED.last_sync_date_for_data,
			updated_at = NOW()
		 RETURNING id`,
		account, file.ParentID, file.RemotePath, file.DecryptedRemotePath, file.MimeType,
		file.FileLength, file.CreationTimestamp, file.ModificationTimestamp, file.UploadTimestamp,
		file.Etag, file.Permissions, file.RemoteID, file.LocalID, file.Favorite, file.Encrypted,
		pq.Array(file.Tags), storagePath, file.LastSyncDateForData).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("save file %s: %w", file.RemotePath, err)
	}

	logging.Debug("saved file record",
		logging.String("account", account),
		logging.String("path", file.RemotePath),
		logging.Int64("id", file.ID))
	return nil
}

// FileByID returns the record with the given id, or nil when there is none.
func (s *Store) FileByID(ctx context.Context, id int64) (*models.LocalFile, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("file_by_id", time.Since(start)) }()

	f, err := scanFile(s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM local_files WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query file %d: %w", id, err)
	}
	return f, nil
}

// FileByRemotePath returns the record of remotePath for account, or nil.
func (s *Store) FileByRemotePath(ctx context.Context, account, remotePath string) (*models.LocalFile, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("file_by_remote_path", time.Since(start)) }()

	f, err := scanFile(s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM local_files WHERE account = $1 AND remote_path = $2`,
		account, remotePath))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", remotePath, err)
	}
	return f, nil
}

// ListChildren returns the records below a folder, most recently modified
// first.
func (s *Store) ListChildren(ctx context.Context, parentID int64) ([]*models.LocalFile, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_children", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM local_files WHERE parent_id = $1 AND id <> $1
		 ORDER BY modification_timestamp DESC, remote_path`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var files []*models.LocalFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// IndexMedia adds a file on shared storage to the media scan catalog.
func (s *Store) IndexMedia(ctx context.Context, path, mimeType string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("index_media", time.Since(start)) }()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media_scan (path, mime_type, indexed_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (path) DO UPDATE SET mime_type = EXCLUDED.mime_type, indexed_at = NOW()`,
		path, mimeType)
	if err != nil {
		return fmt.Errorf("index media %s: %w", path, err)
	}
	return nil
}

// DeleteFileInMediaScan drops path from the media scan catalog and unlinks
// every file record whose local copy lived there.
func (s *Store) DeleteFileInMediaScan(ctx context.Context, path string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete_media_scan", time.Since(start)) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM media_scan WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete media scan entry: %w", err)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE local_files SET storage_path = NULL, updated_at = NOW() WHERE storage_path = $1`, path)
	if err != nil {
		return fmt.Errorf("unlink local copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	rows, _ := result.RowsAffected()
	logging.Debug("invalidated media scan entry", logging.String("path", path), logging.Int64("records", rows))
	return nil
}

// MediaIndexed reports whether path is in the media scan catalog.
func (s *Store) MediaIndexed(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM media_scan WHERE path = $1)`, path).Scan(&exists)
	return exists, err
}
