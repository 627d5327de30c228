package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"pool_monitor/internal/entity"
)

var errNodeDown = errors.New("node unavailable")

// scriptedStep is one scripted response: a page or an error.
type scriptedStep struct {
	page *entity.TableRowsPage
	err  error
}

// scriptedClient replays steps per source and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	steps    map[string][]scriptedStep
	fallback map[string]scriptedStep
	requests map[string][]entity.TableRowsRequest
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		steps:    make(map[string][]scriptedStep),
		fallback: make(map[string]scriptedStep),
		requests: make(map[string][]entity.TableRowsRequest),
	}
}

func (c *scriptedClient) script(sourceID string, steps ...scriptedStep) *scriptedClient {
	c.steps[sourceID] = append(c.steps[sourceID], steps...)
	return c
}

func (c *scriptedClient) alwaysFail(sourceID string) *scriptedClient {
	c.fallback[sourceID] = scriptedStep{err: errNodeDown}
	return c
}

func (c *scriptedClient) GetTableRows(_ context.Context, sourceID string, req entity.TableRowsRequest) (*entity.TableRowsPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[sourceID] = append(c.requests[sourceID], req)

	var step scriptedStep
	if queue := c.steps[sourceID]; len(queue) > 0 {
		step, c.steps[sourceID] = queue[0], queue[1:]
	} else if fb, ok := c.fallback[sourceID]; ok {
		step = fb
	} else {
		return nil, &entity.PageFetchError{Source: sourceID, Cursor: req.LowerBound, Cause: errors.New("script exhausted")}
	}
	if step.err != nil {
		return nil, &entity.PageFetchError{Source: sourceID, Cursor: req.LowerBound, StatusCode: 503, Cause: step.err}
	}
	return step.page, nil
}

func (c *scriptedClient) requestsFor(sourceID string) []entity.TableRowsRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.TableRowsRequest(nil), c.requests[sourceID]...)
}

func page(more bool, next string, rows ...entity.RawRecord) scriptedStep {
	if rows == nil {
		rows = []entity.RawRecord{}
	}
	return scriptedStep{page: &entity.TableRowsPage{Rows: rows, More: more, NextKey: entity.Cursor(next)}}
}

func failure() scriptedStep {
	return scriptedStep{err: errNodeDown}
}

// sleepRecorder captures requested sleeps without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.calls...)
}

// memoryStore is a map-backed port.SnapshotStore for tests.
type memoryStore struct {
	mu     sync.Mutex
	states map[string]entity.SourceState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]entity.SourceState)}
}

func (s *memoryStore) Get(id string) (entity.SourceState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return st, ok
}

func (s *memoryStore) Put(st entity.SourceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.Source.ID] = st
}

func (s *memoryStore) All() []entity.SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.SourceState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out
}

func putSnapshot(store *memoryStore, src entity.Source, collected time.Time, rows ...entity.RawRecord) {
	store.Put(entity.SourceState{
		Source: src,
		Status: entity.SourceStatusOK,
		Snapshot: &entity.Snapshot{
			SourceID:    src.ID,
			TableName:   src.Table,
			CollectedAt: collected,
			TotalRows:   len(rows),
			Rows:        rows,
		},
		LastSuccessAt: &collected,
	})
}

// recordingSink is an in-memory port.ExportSink.
type recordingSink struct {
	mu    sync.Mutex
	saved map[string]entity.ExportDocument
	err   error
}

func (s *recordingSink) Save(_ context.Context, filename string, doc entity.ExportDocument) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]entity.ExportDocument)
	}
	s.saved[filename] = doc
	return "mem://" + filename, nil
}
