package entity

import "time"

// RawRecord is one table row exactly as the node returned it.
type RawRecord map[string]any

// Snapshot is the complete result of one successful retrieval for a source.
type Snapshot struct {
	SourceID    string      `json:"sourceId"`
	TableName   string      `json:"tableName"`
	CollectedAt time.Time   `json:"collectedAt"`
	TotalRows   int         `json:"totalRows"`
	Rows        []RawRecord `json:"-"`
}

// SourceStatus describes what the snapshot store currently holds for a source.
type SourceStatus string

const (
	SourceStatusAbsent SourceStatus = "absent"
	SourceStatusOK     SourceStatus = "ok"
	SourceStatusFailed SourceStatus = "failed"
)

// SourceState is the single value held per source in the snapshot store.
// A failed state carries no snapshot; LastSuccessAt survives from the previous success.
type SourceState struct {
	Source        Source       `json:"source"`
	Status        SourceStatus `json:"status"`
	Snapshot      *Snapshot    `json:"snapshot,omitempty"`
	Error         string       `json:"error,omitempty"`
	Attempts      int          `json:"attempts,omitempty"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Usable reports whether the state holds rows that normalization may read.
func (s SourceState) Usable() bool {
	return s.Status == SourceStatusOK && s.Snapshot != nil
}
