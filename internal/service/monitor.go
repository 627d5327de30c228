package service

import (
	"context"
	"sync"
	"time"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/metrics"
	"pool_monitor/internal/port"

	"go.uber.org/zap"
)

// Monitor is the surface consumed by the HTTP API and the CLI: source statuses, the
// filtered pool view, the held filter, and the refresh/export triggers.
type Monitor struct {
	sources   []entity.Source
	store     port.SnapshotStore
	refresher *RefreshService
	exporter  *ExportService
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.RWMutex
	filters entity.FilterSpec
}

// NewMonitor wires the facade. The filter starts at entity.DefaultFilterSpec.
func NewMonitor(sources []entity.Source, store port.SnapshotStore, refresher *RefreshService, exporter *ExportService, logger *zap.Logger) *Monitor {
	return &Monitor{
		sources:   sources,
		store:     store,
		refresher: refresher,
		exporter:  exporter,
		now:       time.Now,
		logger:    logger.Named("Monitor"),
		filters:   entity.DefaultFilterSpec(),
	}
}

// SourceStatuses returns one state per configured source, in configuration order, read
// from a single store listing. Never-fetched sources are "absent".
func (m *Monitor) SourceStatuses() []entity.SourceState {
	known := make(map[string]entity.SourceState, len(m.sources))
	for _, state := range m.store.All() {
		known[state.Source.ID] = state
	}

	out := make([]entity.SourceState, 0, len(m.sources))
	for _, src := range m.sources {
		state, ok := known[src.ID]
		if !ok {
			state = entity.SourceState{Source: src, Status: entity.SourceStatusAbsent}
		}
		out = append(out, state)
	}
	return out
}

// AllPools normalizes the current snapshots without filtering.
func (m *Monitor) AllPools() []entity.Pool {
	pools := Normalize(m.sources, m.store)
	metrics.NormalizedPools.Set(float64(len(pools)))
	return pools
}

// Pools returns the normalized pools filtered and sorted by the held filter.
func (m *Monitor) Pools() []entity.Pool {
	return m.PoolsWith(m.Filters())
}

// PoolsWith is Pools with an explicit filter that is not stored.
func (m *Monitor) PoolsWith(spec entity.FilterSpec) []entity.Pool {
	return ApplyFilters(m.AllPools(), spec)
}

// Markets consolidates every normalized pool by pair.
func (m *Monitor) Markets() []entity.Market {
	return ConsolidateMarkets(m.AllPools())
}

func (m *Monitor) Loading() bool {
	return m.refresher.Loading()
}

func (m *Monitor) LastError() string {
	return m.refresher.LastError()
}

func (m *Monitor) LastRefreshAt() *time.Time {
	return m.refresher.LastRefreshAt()
}

func (m *Monitor) Filters() entity.FilterSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filters
}

// SetFilters replaces the held filter wholesale.
func (m *Monitor) SetFilters(spec entity.FilterSpec) {
	m.mu.Lock()
	m.filters = spec
	m.mu.Unlock()
	m.logger.Debug("Filters updated", zap.Any("filters", spec))
}

// RefreshAll triggers (or joins) a refresh cycle.
func (m *Monitor) RefreshAll(ctx context.Context) (*RefreshReport, error) {
	return m.refresher.RefreshAll(ctx)
}

// ExportDocument builds the export document for the current view.
func (m *Monitor) ExportDocument() entity.ExportDocument {
	spec := m.Filters()
	return BuildExportDocument(m.PoolsWith(spec), spec, m.now())
}

// ExportFilename is the dated filename for a document exported now.
func (m *Monitor) ExportFilename(doc entity.ExportDocument) string {
	return m.exporter.Filename(doc.ExportedAt)
}

// Export builds the current export document and saves it through the export sink.
func (m *Monitor) Export(ctx context.Context) (entity.ExportDocument, string, error) {
	doc := m.ExportDocument()
	location, err := m.exporter.Save(ctx, doc)
	return doc, location, err
}

// Run refreshes every interval until ctx is done. With refreshOnStart the first cycle runs immediately.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, refreshOnStart bool) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	m.logger.Info("Starting periodic refresh", zap.Duration("interval", interval), zap.Bool("refreshOnStart", refreshOnStart))

	if refreshOnStart {
		m.runOnce(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Periodic refresh stopped")
			return nil
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	report, err := m.RefreshAll(ctx)
	if err != nil {
		m.logger.Error("Refresh cycle failed", zap.Error(err))
		return
	}
	if report.Error != "" {
		m.logger.Warn("Refresh cycle finished with failures", zap.String("summary", report.Error))
	}
	m.logger.Info("Pools available", zap.Int("count", len(m.AllPools())))
}
