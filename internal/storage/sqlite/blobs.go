package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sessiontree/sessiontree/internal/types"
)

// PutBlob stores content-addressed bytes, incrementing ref_count on reuse
// instead of erroring on a duplicate hash. Garbage collection is out of
// scope (§3 Blob lifecycle); ref counts accumulate without pruning.
func PutBlob(ctx context.Context, q querier, b *types.Blob) (*types.Blob, error) {
	row := q.QueryRowContext(ctx, `SELECT id, ref_count FROM blobs WHERE content_hash = ?`, b.ContentHash)
	var existingID string
	var refCount int64
	err := row.Scan(&existingID, &refCount)
	switch err {
	case nil:
		if _, err := q.ExecContext(ctx, `UPDATE blobs SET ref_count = ref_count + 1 WHERE id = ?`, existingID); err != nil {
			return nil, classifyErr(err)
		}
		b.ID = types.BlobId(existingID)
		b.RefCount = refCount + 1
		return b, nil
	case sql.ErrNoRows:
		if b.ID == "" {
			b.ID = types.NewBlobId()
		}
		if b.RefCount == 0 {
			b.RefCount = 1
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO blobs (id, content_hash, bytes, mime_type, original_size, compressed_size, compression_scheme, ref_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, string(b.ID), b.ContentHash, b.Bytes, b.MimeType, b.OriginalSize, b.CompressedSize, b.CompressionScheme, b.RefCount)
		if err != nil {
			return nil, classifyErr(err)
		}
		return b, nil
	default:
		return nil, classifyErr(err)
	}
}

// GetBlob fetches a blob by id.
func GetBlob(ctx context.Context, q querier, id types.BlobId) (*types.Blob, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, content_hash, bytes, mime_type, original_size, compressed_size, compression_scheme, ref_count
		FROM blobs WHERE id = ?
	`, string(id))
	var b types.Blob
	var rid string
	if err := row.Scan(&rid, &b.ContentHash, &b.Bytes, &b.MimeType, &b.OriginalSize, &b.CompressedSize, &b.CompressionScheme, &b.RefCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", types.ErrStorage, "blob not found: "+string(id))
		}
		return nil, classifyErr(err)
	}
	b.ID = types.BlobId(rid)
	return &b, nil
}
