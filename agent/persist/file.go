package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

// FileSink writes one JSON file per checkpoint under dir.
//
// Checkpoints carrying an ID are named <prefix>_<id>.json; the rest are named
// <prefix>_<name>_<timestamp>_<suffix>.json.
type FileSink struct {
	dir    string
	prefix string
	perm   os.FileMode
}

func NewFileSink(dir, prefix string) (*FileSink, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("%w: sink directory is required", contractx.ErrValidation)
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "record"
	}
	return &FileSink{dir: dir, prefix: prefix, perm: 0o644}, nil
}

func (s *FileSink) Dir() string {
	return s.dir
}

func (s *FileSink) Write(ctx context.Context, cp contractx.Checkpoint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrPersistence, err)
	}
	if cp.Payload == nil {
		return "", fmt.Errorf("%w: checkpoint payload is nil", contractx.ErrValidation)
	}
	createdAt := cp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	data, err := json.MarshalIndent(cp.Payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal %s checkpoint: %v", contractx.ErrPersistence, cp.Kind, err)
	}

	path := filepath.Join(s.dir, s.fileName(cp, createdAt))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s already exists", contractx.ErrPersistence, path)
	}
	if err := WriteFileAtomic(path, append(data, '\n'), s.perm); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrPersistence, err)
	}

	log.Info().
		Str("kind", cp.Kind).
		Str("path", path).
		Msg("checkpoint written")
	return path, nil
}

func (s *FileSink) fileName(cp contractx.Checkpoint, at time.Time) string {
	if id := strings.TrimSpace(cp.ID); id != "" {
		return fmt.Sprintf("%s_%s.json", s.prefix, SanitizeName(id))
	}
	return fmt.Sprintf("%s_%s_%s_%s.json",
		s.prefix,
		SanitizeName(cp.Name),
		at.Format(TimestampLayout),
		uniqueSuffix(at),
	)
}
