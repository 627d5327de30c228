package port

import (
	"context"

	"pool_monitor/internal/entity"
)

// RetrievalService pages through one source's table until it is exhausted.
type RetrievalService interface {
	Retrieve(ctx context.Context, source entity.Source) (*entity.Snapshot, error)
}

// ExportSink persists an export document somewhere outside the process.
type ExportSink interface {
	// Save stores doc under filename and returns where it ended up.
	Save(ctx context.Context, filename string, doc entity.ExportDocument) (string, error)
}
