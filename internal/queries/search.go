// Package queries is the C6 search component: a thin scope-aware wrapper
// over the storage backend's full-text index.
package queries

import (
	"context"
	"database/sql"

	"github.com/sessiontree/sessiontree/internal/storage/sqlite"
	"github.com/sessiontree/sessiontree/internal/types"
)

// Search issues a full-text query over events_fts with optional workspace/
// session/type/time scope filters, returning results ordered
// best-match-first (§4.6).
func Search(ctx context.Context, db *sql.DB, opts types.SearchOptions) ([]types.SearchResult, error) {
	return sqlite.Search(ctx, db, opts)
}
