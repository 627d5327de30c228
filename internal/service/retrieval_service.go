package service

import (
	"context"
	"time"

	"pool_monitor/internal/config"
	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/metrics"
	"pool_monitor/internal/port"

	"go.uber.org/zap"
)

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetrievalService pages through a source's table with linear backoff on page failures.
type RetrievalService struct {
	client      port.TableClient
	pageLimit   int
	pageDelay   time.Duration
	backoffUnit time.Duration
	maxAttempts int
	sleep       SleepFunc
	now         func() time.Time
	logger      *zap.Logger
}

// RetrievalOption customizes a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithSleep replaces the pacing/backoff sleep.
func WithSleep(fn SleepFunc) RetrievalOption {
	return func(s *RetrievalService) { s.sleep = fn }
}

// WithClock replaces the clock used for snapshot timestamps.
func WithClock(now func() time.Time) RetrievalOption {
	return func(s *RetrievalService) { s.now = now }
}

// NewRetrievalService creates a retrieval engine bound to client.
func NewRetrievalService(client port.TableClient, cfg config.RetrievalConfig, logger *zap.Logger, opts ...RetrievalOption) *RetrievalService {
	s := &RetrievalService{
		client:      client,
		pageLimit:   cfg.PageLimit,
		pageDelay:   cfg.PageDelay(),
		backoffUnit: cfg.BackoffUnit(),
		maxAttempts: cfg.MaxAttempts,
		sleep:       SleepContext,
		now:         time.Now,
		logger:      logger.Named("RetrievalService"),
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = config.DefaultMaxAttempts
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve fetches every page of source's table. A failing page is retried with the same
// cursor; the attempt counter resets after every successful page. When the counter reaches
// the maximum the whole retrieval fails with *entity.RetrievalError and no rows are returned.
func (s *RetrievalService) Retrieve(ctx context.Context, source entity.Source) (*entity.Snapshot, error) {
	log := s.logger.With(zap.String("source", source.ID), zap.String("table", source.Table))

	rows := make([]entity.RawRecord, 0, s.pageLimit)
	cursor := ""
	attempts := 0
	pages := 0

	for {
		page, err := s.client.GetTableRows(ctx, source.ID, entity.TableRowsRequest{
			JSON:       true,
			Code:       source.Contract,
			Scope:      source.EffectiveScope(),
			Table:      source.Table,
			Limit:      s.pageLimit,
			LowerBound: cursor,
		})
		if err != nil {
			attempts++
			if ctx.Err() != nil || attempts >= s.maxAttempts {
				metrics.RetrievalFailures.WithLabelValues(source.ID).Inc()
				log.Error("Retrieval failed", zap.Int("attempts", attempts), zap.String("cursor", cursor), zap.Error(err))
				return nil, &entity.RetrievalError{Source: source.ID, Cause: err, Attempts: attempts}
			}

			backoff := time.Duration(attempts) * s.backoffUnit
			metrics.PageRetries.WithLabelValues(source.ID).Inc()
			log.Warn("Page request failed, retrying",
				zap.Int("attempt", attempts),
				zap.Duration("backoff", backoff),
				zap.String("cursor", cursor),
				zap.Error(err))
			if err := s.sleep(ctx, backoff); err != nil {
				return nil, &entity.RetrievalError{Source: source.ID, Cause: err, Attempts: attempts}
			}
			continue
		}

		attempts = 0
		pages++
		rows = append(rows, page.Rows...)

		if !page.More {
			break
		}
		next := string(page.NextKey)
		if next == "" || next == cursor {
			log.Warn("Node reported more rows without an advancing cursor, stopping",
				zap.String("cursor", cursor),
				zap.String("nextKey", next),
				zap.Int("rows", len(rows)))
			break
		}
		cursor = next

		if err := s.sleep(ctx, s.pageDelay); err != nil {
			return nil, &entity.RetrievalError{Source: source.ID, Cause: err, Attempts: attempts}
		}
	}

	log.Info("Retrieved table", zap.Int("rows", len(rows)), zap.Int("pages", pages))
	return &entity.Snapshot{
		SourceID:    source.ID,
		TableName:   source.Table,
		CollectedAt: s.now().UTC(),
		TotalRows:   len(rows),
		Rows:        rows,
	}, nil
}
