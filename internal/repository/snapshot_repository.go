package repository

import (
	"sort"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/port"

	"github.com/patrickmn/go-cache"
)

// inMemorySnapshotRepository keeps one SourceState per source id. Entries never expire
// and are never partially updated; Put replaces the whole value.
type inMemorySnapshotRepository struct {
	states *cache.Cache
}

// NewInMemorySnapshotRepository creates an empty process-scoped snapshot store.
func NewInMemorySnapshotRepository() port.SnapshotStore {
	return &inMemorySnapshotRepository{
		states: cache.New(cache.NoExpiration, 0),
	}
}

func (r *inMemorySnapshotRepository) Get(sourceID string) (entity.SourceState, bool) {
	v, found := r.states.Get(sourceID)
	if !found {
		return entity.SourceState{}, false
	}
	state, ok := v.(entity.SourceState)
	return state, ok
}

func (r *inMemorySnapshotRepository) Put(state entity.SourceState) {
	r.states.Set(state.Source.ID, state, cache.NoExpiration)
}

// All returns every stored state ordered by source id.
func (r *inMemorySnapshotRepository) All() []entity.SourceState {
	items := r.states.Items()
	out := make([]entity.SourceState, 0, len(items))
	for _, item := range items {
		if state, ok := item.Object.(entity.SourceState); ok {
			out = append(out, state)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source.ID < out[j].Source.ID })
	return out
}
