package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/metrics"
	"pool_monitor/internal/port"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh-all"

// SourceResult is one source's outcome inside a refresh cycle.
type SourceResult struct {
	SourceID string              `json:"source_id"`
	Status   entity.SourceStatus `json:"status"`
	Rows     int                 `json:"rows"`
	Attempts int                 `json:"attempts,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// RefreshReport summarizes one refresh cycle.
type RefreshReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []SourceResult `json:"results"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Error      string         `json:"error,omitempty"`
	Shared     bool           `json:"shared,omitempty"` // delivered to more than one concurrent caller
}

// RefreshService retrieves every source concurrently and writes the results to the store.
// Concurrent RefreshAll calls share a single in-flight cycle.
type RefreshService struct {
	sources   []entity.Source
	retrieval port.RetrievalService
	store     port.SnapshotStore
	now       func() time.Time
	logger    *zap.Logger

	group   singleflight.Group
	loading atomic.Bool

	mu            sync.RWMutex
	lastError     string
	lastRefreshAt *time.Time
}

// NewRefreshService creates the orchestrator for sources.
func NewRefreshService(sources []entity.Source, retrieval port.RetrievalService, store port.SnapshotStore, logger *zap.Logger) *RefreshService {
	return &RefreshService{
		sources:   sources,
		retrieval: retrieval,
		store:     store,
		now:       time.Now,
		logger:    logger.Named("RefreshService"),
	}
}

// Loading reports whether a refresh cycle is in flight.
func (s *RefreshService) Loading() bool {
	return s.loading.Load()
}

// LastError is the aggregated failure summary of the last finished cycle, or "".
func (s *RefreshService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// LastRefreshAt is when the last cycle finished, nil before the first one.
func (s *RefreshService) LastRefreshAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshAt
}

// RefreshAll runs one refresh cycle, or joins the one already running. It returns an
// *entity.AggregateRefreshError only when every source failed; partial failures are
// reported through RefreshReport.Error.
func (s *RefreshService) RefreshAll(ctx context.Context) (*RefreshReport, error) {
	v, err, shared := s.group.Do(refreshKey, func() (any, error) {
		return s.refresh(ctx)
	})
	report, _ := v.(*RefreshReport)
	if shared && report != nil {
		joined := *report
		joined.Shared = true
		report = &joined
	}
	return report, err
}

func (s *RefreshService) refresh(ctx context.Context) (*RefreshReport, error) {
	if len(s.sources) == 0 {
		return nil, entity.ErrNoSources
	}

	s.loading.Store(true)
	defer s.loading.Store(false)

	timer := prometheus.NewTimer(metrics.RefreshDuration)
	defer timer.ObserveDuration()

	report := &RefreshReport{
		StartedAt: s.now().UTC(),
		Results:   make([]SourceResult, len(s.sources)),
	}
	failures := make([]*entity.RetrievalError, len(s.sources))

	s.logger.Info("Starting refresh", zap.Int("sources", len(s.sources)))

	// Every goroutine returns nil so one source's failure never cancels the others.
	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		i, src := i, src
		eg.Go(func() error {
			snap, err := s.retrieval.Retrieve(egCtx, src)
			if err != nil {
				failures[i] = s.markFailed(src, err)
				report.Results[i] = SourceResult{
					SourceID: src.ID,
					Status:   entity.SourceStatusFailed,
					Attempts: failures[i].Attempts,
					Error:    failures[i].Error(),
				}
				return nil
			}
			s.markOK(src, snap)
			report.Results[i] = SourceResult{SourceID: src.ID, Status: entity.SourceStatusOK, Rows: snap.TotalRows}
			return nil
		})
	}
	_ = eg.Wait()

	agg := &entity.AggregateRefreshError{}
	for _, f := range failures {
		if f != nil {
			agg.Failures = append(agg.Failures, f)
		}
	}
	report.Failed = len(agg.Failures)
	report.Succeeded = len(s.sources) - report.Failed
	report.Error = agg.Summary()
	report.FinishedAt = s.now().UTC()

	s.mu.Lock()
	s.lastError = report.Error
	finished := report.FinishedAt
	s.lastRefreshAt = &finished
	s.mu.Unlock()

	s.logger.Info("Refresh finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))

	if report.Succeeded == 0 {
		return report, agg
	}
	return report, nil
}

func (s *RefreshService) markOK(src entity.Source, snap *entity.Snapshot) {
	collected := snap.CollectedAt
	s.store.Put(entity.SourceState{
		Source:        src,
		Status:        entity.SourceStatusOK,
		Snapshot:      snap,
		LastSuccessAt: &collected,
		UpdatedAt:     s.now().UTC(),
	})
	metrics.SourceRows.WithLabelValues(src.ID).Set(float64(snap.TotalRows))
}

// markFailed replaces the source's state with a failure marker that keeps the last success time.
func (s *RefreshService) markFailed(src entity.Source, err error) *entity.RetrievalError {
	var re *entity.RetrievalError
	if !errors.As(err, &re) {
		re = &entity.RetrievalError{Source: src.ID, Cause: err}
	}

	var lastSuccess *time.Time
	if prev, ok := s.store.Get(src.ID); ok {
		lastSuccess = prev.LastSuccessAt
	}
	s.store.Put(entity.SourceState{
		Source:        src,
		Status:        entity.SourceStatusFailed,
		Error:         re.Error(),
		Attempts:      re.Attempts,
		LastSuccessAt: lastSuccess,
		UpdatedAt:     s.now().UTC(),
	})
	metrics.SourceRows.WithLabelValues(src.ID).Set(0)
	s.logger.Warn("Source refresh failed", zap.String("source", src.ID), zap.Error(re))
	return re
}
