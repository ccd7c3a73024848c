// Package cachewriter persists every raw inbound frame to its own
// sequentially numbered JSON file, adapted from the teacher's file-backed
// storage layer down to a single append-only directory sink since this
// engine has no database to write through.
package cachewriter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kryptostream/obengine/pkg/types"
	"go.uber.org/zap"
)

// Writer writes raw frames to "NNNNNN_<product>_<type>.json" files inside
// a single directory, in strict arrival order.
type Writer struct {
	dir     string
	product string
	runID   string
	logger  *zap.Logger
	seq     atomic.Int64
}

// New validates that dir exists and is empty, then returns a Writer
// rooted there. A non-existent, non-directory, or non-empty dir is a
// fatal *types.ConfigError.
func New(dir, product string, logger *zap.Logger) (*Writer, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &types.ConfigError{Reason: fmt.Sprintf("cache dir %q: %s", dir, err)}
	}
	if !info.IsDir() {
		return nil, &types.ConfigError{Reason: fmt.Sprintf("cache dir %q is not a directory", dir)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &types.ConfigError{Reason: fmt.Sprintf("cache dir %q: %s", dir, err)}
	}
	if len(entries) > 0 {
		return nil, &types.ConfigError{Reason: fmt.Sprintf("cache dir %q is not empty", dir)}
	}

	runID := uuid.New().String()
	logger.Info("cache-writer-started",
		zap.String("dir", dir),
		zap.String("product", product),
		zap.String("run_id", runID))

	return &Writer{dir: dir, product: product, runID: runID, logger: logger}, nil
}

// RunID identifies this cache-writing session, for correlating the files
// it produced with the run that wrote them in operator logs.
func (w *Writer) RunID() string {
	return w.runID
}

// Write persists one raw frame, in order. Satisfies ingress.Sink.
func (w *Writer) Write(raw []byte) error {
	msgType, err := types.FrameType(raw)
	if err != nil {
		msgType = "unknown"
	}

	n := w.seq.Add(1) - 1
	name := fmt.Sprintf("%06d_%s_%s.json", n, w.product, msgType)
	path := filepath.Join(w.dir, name)

	payload := make([]byte, 0, len(raw)+1)
	payload = append(payload, raw...)
	payload = append(payload, '\n')

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		WriteErrorsTotal.Inc()
		w.logger.Warn("cache-write-failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("write cache file %q: %w", path, err)
	}

	FramesWrittenTotal.Inc()
	return nil
}
