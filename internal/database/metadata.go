package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/metrics"
)

// Blobs above compressThreshold bytes are stored LZMA-compressed behind
// blobCompressed. Stored XML and JSON never start with that byte, so rows
// written uncompressed read back unchanged.
const (
	compressThreshold = 4 << 10
	blobCompressed    = 0x01
)

// SetMetadata stores the metadata blob for every file with the given hash.
func (d *Database) SetMetadata(ctx context.Context, sha, blob string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_metadata", start, err) }()

	data, err := encodeBlob(blob)
	if err != nil {
		return fmt.Errorf("compressing metadata for %s: %w", sha, err)
	}
	metrics.DBMetadataBytes.Observe(float64(len(data)))

	status := MetadataValid
	if !djvu.IsMetadataValid(blob) {
		status = MetadataFailed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE files SET metadata = ?, metadata_status = ? WHERE sha = ?",
		data, status, sha)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		err = ErrNotFound
	}
	return err
}

// GetMetadata returns the metadata blob stored for a content hash, or
// ErrNotFound when no file with that hash has metadata yet.
func (d *Database) GetMetadata(ctx context.Context, sha string) (blob string, err error) {
	start := time.Now()
	defer func() { recordQuery("get_metadata", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var data []byte
	err = d.db.QueryRowContext(ctx,
		"SELECT metadata FROM files WHERE sha = ? AND metadata IS NOT NULL LIMIT 1", sha).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return decodeBlob(data)
}

func encodeBlob(blob string) ([]byte, error) {
	if len(blob) <= compressThreshold {
		return []byte(blob), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(blobCompressed)
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(blob)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBlob(data []byte) (string, error) {
	if len(data) == 0 || data[0] != blobCompressed {
		return string(data), nil
	}

	r, err := lzma.NewReader(bytes.NewReader(data[1:]))
	if err != nil {
		return "", fmt.Errorf("decompressing metadata: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", fmt.Errorf("decompressing metadata: %w", err)
	}
	return buf.String(), nil
}
