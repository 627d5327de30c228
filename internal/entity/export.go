package entity

import "time"

// ExportDocument is the self-describing snapshot handed to the file-save collaborator.
type ExportDocument struct {
	ExportedAt     time.Time  `json:"exported_at"`
	FiltersApplied FilterSpec `json:"filters_applied"`
	TotalPools     int        `json:"total_pools"`
	Data           []Pool     `json:"data"`
}
