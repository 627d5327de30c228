package exportsink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pool_monitor/internal/entity"

	"go.uber.org/zap"
)

func TestFileSinkSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewFileSink(dir, zap.NewNop())
	doc := entity.ExportDocument{
		ExportedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FiltersApplied: entity.DefaultFilterSpec(),
		TotalPools:     1,
		Data:           []entity.Pool{{ID: "taco:1", PairName: "TACO/WAX", Liquidity: 150}},
	}

	path, err := sink.Save(context.Background(), "wax-pools-2024-05-01.json", doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(dir, "wax-pools-2024-05-01.json") {
		t.Fatalf("unexpected path %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded entity.ExportDocument
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TotalPools != 1 || decoded.Data[0].PairName != "TACO/WAX" || !decoded.ExportedAt.Equal(doc.ExportedAt) {
		t.Fatalf("unexpected document: %+v", decoded)
	}
	if decoded.FiltersApplied != doc.FiltersApplied {
		t.Fatalf("filters not preserved: %+v", decoded.FiltersApplied)
	}
}

func TestFileSinkRejectsPathFilenames(t *testing.T) {
	sink := NewFileSink(t.TempDir(), zap.NewNop())
	for _, name := range []string{"", "../escape.json", "a/b.json", ".."} {
		if _, err := sink.Save(context.Background(), name, entity.ExportDocument{}); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}
