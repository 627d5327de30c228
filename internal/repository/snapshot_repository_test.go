package repository

import (
	"testing"
	"time"

	"pool_monitor/internal/entity"
)

func TestSnapshotRepositoryReplacesWholeState(t *testing.T) {
	repo := NewInMemorySnapshotRepository()

	if _, ok := repo.Get("taco"); ok {
		t.Fatalf("expected empty store")
	}

	now := time.Now()
	repo.Put(entity.SourceState{
		Source:        entity.Source{ID: "taco"},
		Status:        entity.SourceStatusOK,
		Snapshot:      &entity.Snapshot{SourceID: "taco", TotalRows: 2, Rows: []entity.RawRecord{{}, {}}},
		LastSuccessAt: &now,
	})
	repo.Put(entity.SourceState{
		Source:        entity.Source{ID: "taco"},
		Status:        entity.SourceStatusFailed,
		Error:         "boom",
		LastSuccessAt: &now,
	})

	got, ok := repo.Get("taco")
	if !ok {
		t.Fatalf("expected state for taco")
	}
	if got.Status != entity.SourceStatusFailed || got.Snapshot != nil || got.Usable() {
		t.Fatalf("expected failure marker to replace snapshot, got %+v", got)
	}
	if got.LastSuccessAt == nil || !got.LastSuccessAt.Equal(now) {
		t.Fatalf("expected last success to be kept")
	}
}

func TestSnapshotRepositoryAllIsOrdered(t *testing.T) {
	repo := NewInMemorySnapshotRepository()
	for _, id := range []string{"box", "alcor", "taco"} {
		repo.Put(entity.SourceState{Source: entity.Source{ID: id}, Status: entity.SourceStatusOK})
	}

	all := repo.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 states, got %d", len(all))
	}
	for i, want := range []string{"alcor", "box", "taco"} {
		if all[i].Source.ID != want {
			t.Fatalf("position %d: got %s want %s", i, all[i].Source.ID, want)
		}
	}
}
