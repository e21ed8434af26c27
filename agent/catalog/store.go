// Package catalog loads the immutable reference data each agent variant
// searches: FAQ entries, the grocery catalog with recipes, and fraud cases.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Store holds the latest decoded snapshot of one JSON document. Reads are
// lock-free; loads are serialized.
type Store[T any] struct {
	name   string
	path   string
	decode func([]byte) (T, error)
	empty  func() T

	loadMu  sync.Mutex
	current atomic.Pointer[T]
}

func NewStore[T any](name, path string, decode func([]byte) (T, error), empty func() T) *Store[T] {
	return &Store[T]{
		name:   name,
		path:   strings.TrimSpace(path),
		decode: decode,
		empty:  empty,
	}
}

func (s *Store[T]) Name() string { return s.name }
func (s *Store[T]) Path() string { return s.path }

// Load reads the document and swaps it in. A missing document yields the
// empty value with a warning. A malformed document returns an error and keeps
// the previous snapshot.
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		return s.Snapshot(), err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	value, err := s.read()
	if err != nil {
		return s.Snapshot(), err
	}
	s.current.Store(&value)
	return value, nil
}

// Reload is Load without the value, safe to call repeatedly.
func (s *Store[T]) Reload(ctx context.Context) error {
	_, err := s.Load(ctx)
	return err
}

// Snapshot returns the last loaded value, or the empty value before any load.
func (s *Store[T]) Snapshot() T {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return s.empty()
}

// Loaded reports whether a load has completed.
func (s *Store[T]) Loaded() bool {
	return s.current.Load() != nil
}

func (s *Store[T]) set(value T) {
	s.current.Store(&value)
}

func (s *Store[T]) read() (T, error) {
	if s.path == "" {
		log.Warn().Str("catalog", s.name).Msg("catalog path not configured, using empty catalog")
		return s.empty(), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("catalog", s.name).Str("path", s.path).Msg("catalog file not found, using empty catalog")
			return s.empty(), nil
		}
		return s.empty(), fmt.Errorf("read %s catalog: %w", s.name, err)
	}

	value, err := s.decode(data)
	if err != nil {
		return s.empty(), fmt.Errorf("decode %s catalog %s: %w", s.name, s.path, err)
	}
	log.Debug().Str("catalog", s.name).Str("path", s.path).Msg("catalog loaded")
	return value, nil
}
