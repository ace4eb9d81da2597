// Package artifacts writes exported portfolio files to a local directory or
// an S3-compatible bucket.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

// Sink stores one artifact and returns where it ended up.
type Sink interface {
	Put(ctx context.Context, artifact presenter.Artifact) (location string, err error)
}

// FileSink writes artifacts into a directory.
type FileSink struct {
	dir string
	log zerolog.Logger
}

// NewFileSink creates a sink rooted at dir. The directory is created on first write.
func NewFileSink(dir string, log zerolog.Logger) *FileSink {
	return &FileSink{
		dir: dir,
		log: log.With().Str("component", "file_sink").Logger(),
	}
}

// Put writes the artifact atomically via a temporary file in the same directory.
func (s *FileSink) Put(ctx context.Context, artifact presenter.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+artifact.Filename+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(artifact.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", artifact.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", artifact.Filename, err)
	}

	path := filepath.Join(s.dir, artifact.Filename)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", artifact.Filename, err)
	}

	s.log.Debug().Str("path", path).Int("bytes", len(artifact.Data)).Msg("Artifact written")
	return path, nil
}
