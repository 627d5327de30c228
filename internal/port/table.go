package port

import (
	"context"

	"pool_monitor/internal/entity"
)

// TableClient issues single get_table_rows page requests against a chain node.
type TableClient interface {
	// GetTableRows fetches one page. Any failure is returned as *entity.PageFetchError.
	GetTableRows(ctx context.Context, sourceID string, req entity.TableRowsRequest) (*entity.TableRowsPage, error)
}

// SnapshotStore holds exactly one SourceState per source for the process lifetime.
// Values are only ever replaced whole.
type SnapshotStore interface {
	Get(sourceID string) (entity.SourceState, bool)
	Put(state entity.SourceState)
	All() []entity.SourceState
}
