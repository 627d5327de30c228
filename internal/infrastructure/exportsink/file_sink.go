package exportsink

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileSink saves export documents as indented JSON files under a directory.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

// NewFileSink creates a sink writing into dir, which is created on first save.
func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	return &FileSink{
		dir:    dir,
		logger: logger.Named("FileSink"),
	}
}

// Save writes doc to dir/filename atomically and returns the file path.
func (s *FileSink) Save(ctx context.Context, filename string, doc entity.ExportDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid export filename %q", filename)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export document: %w", err)
	}

	path := filepath.Join(s.dir, filename)
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		s.logger.Error("Failed to write export", zap.String("path", path), zap.Error(err))
		return "", err
	}

	s.logger.Debug("Export written", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}
