package service

import (
	"context"
	"fmt"
	"time"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/port"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BuildExportDocument snapshots pools and the filter that produced them.
func BuildExportDocument(pools []entity.Pool, spec entity.FilterSpec, exportedAt time.Time) entity.ExportDocument {
	data := make([]entity.Pool, len(pools))
	copy(data, pools)
	return entity.ExportDocument{
		ExportedAt:     exportedAt.UTC(),
		FiltersApplied: spec,
		TotalPools:     len(data),
		Data:           data,
	}
}

// ExportFilename embeds the UTC export date, e.g. wax-pools-2024-05-01.json.
func ExportFilename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.json", prefix, at.UTC().Format("2006-01-02"))
}

// EncodeExportDocument renders doc as indented JSON.
func EncodeExportDocument(doc entity.ExportDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// ExportService hands export documents to an ExportSink.
type ExportService struct {
	sink   port.ExportSink
	prefix string
	logger *zap.Logger
}

// NewExportService creates an ExportService writing "<prefix>-<date>.json" files.
func NewExportService(sink port.ExportSink, prefix string, logger *zap.Logger) *ExportService {
	return &ExportService{
		sink:   sink,
		prefix: prefix,
		logger: logger.Named("ExportService"),
	}
}

// Filename returns the name a document exported at t is saved under.
func (s *ExportService) Filename(t time.Time) string {
	return ExportFilename(s.prefix, t)
}

// Save delivers doc to the sink and returns its location.
func (s *ExportService) Save(ctx context.Context, doc entity.ExportDocument) (string, error) {
	if s.sink == nil {
		return "", fmt.Errorf("no export sink configured")
	}
	name := s.Filename(doc.ExportedAt)
	location, err := s.sink.Save(ctx, name, doc)
	if err != nil {
		s.logger.Error("Failed to save export", zap.String("filename", name), zap.Error(err))
		return "", fmt.Errorf("save export %s: %w", name, err)
	}
	s.logger.Info("Export saved", zap.String("location", location), zap.Int("pools", doc.TotalPools))
	return location, nil
}
