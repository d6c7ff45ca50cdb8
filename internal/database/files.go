package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/metrics"
)

// UpsertFile records a file seen by the indexer and reports whether its
// metadata still has to be extracted. A file whose content hash changed loses
// its stored metadata; a new hash that another row already carries inherits
// that row's metadata.
func (d *Database) UpsertFile(ctx context.Context, file *File) (needsMetadata bool, err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_file", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	var (
		oldSHA    string
		oldStatus MetadataStatus
	)
	err = tx.QueryRowContext(ctx, "SELECT sha, metadata_status FROM files WHERE path = ?", file.Path).
		Scan(&oldSHA, &oldStatus)
	switch {
	case err == nil && oldSHA == file.SHA:
		_, err = tx.ExecContext(ctx, `
			UPDATE files SET size = ?, mod_time = ?, updated_at = strftime('%s', 'now')
			WHERE path = ?
		`, file.Size, file.ModTime.Unix(), file.Path)
		if err != nil {
			return false, err
		}
		file.MetadataStatus = oldStatus
		return oldStatus == MetadataPending, tx.Commit()
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, err
	}

	// New path or changed content: inherit metadata stored for the same hash.
	var (
		metadata []byte
		status   = MetadataPending
	)
	err = tx.QueryRowContext(ctx, `
		SELECT metadata, metadata_status FROM files
		WHERE sha = ? AND metadata IS NOT NULL LIMIT 1
	`, file.SHA).Scan(&metadata, &status)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files (path, sha, size, mod_time, metadata, metadata_status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path) DO UPDATE SET
			sha = excluded.sha,
			size = excluded.size,
			mod_time = excluded.mod_time,
			metadata = excluded.metadata,
			metadata_status = excluded.metadata_status,
			updated_at = excluded.updated_at
	`, file.Path, file.SHA, file.Size, file.ModTime.Unix(), metadata, status)
	if err != nil {
		return false, err
	}

	if oldSHA != "" {
		logging.Debug("Content of %s changed (%s -> %s)", file.Path, oldSHA, file.SHA)
	}
	file.MetadataStatus = status
	return status == MetadataPending, tx.Commit()
}

const fileColumns = "id, path, sha, size, mod_time, metadata_status, updated_at"

func scanFile(row interface{ Scan(...any) error }) (*File, error) {
	var (
		file      File
		modTime   int64
		updatedAt int64
	)
	if err := row.Scan(&file.ID, &file.Path, &file.SHA, &file.Size, &modTime, &file.MetadataStatus, &updatedAt); err != nil {
		return nil, err
	}
	file.ModTime = time.Unix(modTime, 0)
	file.UpdatedAt = time.Unix(updatedAt, 0)
	return &file, nil
}

// GetFileByPath retrieves a single file by path.
func (d *Database) GetFileByPath(ctx context.Context, path string) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("get_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	file, err = scanFile(d.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return file, err
}

// GetFileBySHA retrieves the first file with the given content hash.
func (d *Database) GetFileBySHA(ctx context.Context, sha string) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("get_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	file, err = scanFile(d.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE sha = ? ORDER BY id LIMIT 1", sha))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return file, err
}

// ListFiles returns one page of indexed files ordered by path.
func (d *Database) ListFiles(ctx context.Context, opts ListOptions) (list *FileList, err error) {
	start := time.Now()
	defer func() { recordQuery("list_files", start, err) }()

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 500 {
		opts.PageSize = 100
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := "", []any{}
	if opts.Status != "" {
		where = " WHERE metadata_status = ?"
		args = append(args, opts.Status)
	}

	list = &FileList{Items: []File{}, Page: opts.Page, PageSize: opts.PageSize}
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files"+where, args...).Scan(&list.TotalItems); err != nil {
		return nil, err
	}
	list.TotalPages = (list.TotalItems + opts.PageSize - 1) / opts.PageSize

	args = append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)
	rows, err := d.db.QueryContext(ctx, "SELECT "+fileColumns+" FROM files"+where+" ORDER BY path LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		file, scanErr := scanFile(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		list.Items = append(list.Items, *file)
	}
	err = rows.Err()
	return list, err
}

// DeleteMissingFiles removes files that weren't seen since cutoffTime.
func (d *Database) DeleteMissingFiles(ctx context.Context, cutoffTime time.Time) (deleted int64, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_missing_files", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM files WHERE updated_at < ?", cutoffTime.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Stats counts indexed files by metadata status.
func (d *Database) Stats(ctx context.Context) (stats metrics.Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT metadata_status, COUNT(*) FROM files GROUP BY metadata_status")
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status MetadataStatus
			count  int
		)
		if err = rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.TotalFiles += count
		switch status {
		case MetadataValid:
			stats.ValidMetadata = count
		case MetadataFailed:
			stats.FailedMetadata = count
		default:
			stats.PendingMetadata += count
		}
	}
	err = rows.Err()
	return stats, err
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	stats, err := d.Stats(context.Background())
	if err != nil {
		logging.Warn("Failed to collect library stats: %v", err)
	}
	return stats
}
