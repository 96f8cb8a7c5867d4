// Package store persists encoded sessions. It knows nothing about their
// contents: callers hand it bytes produced by the session package.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sketchover/internal/logging"
)

var (
	// ErrNotFound means there is no saved session yet.
	ErrNotFound = errors.New("store: no saved session")
	// ErrSaveInFlight is returned when a save is requested while another
	// one is still running.
	ErrSaveInFlight = errors.New("store: save already in progress")
)

// Store reads and writes the current session.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	// Quarantine sets the current session aside so it is neither loaded
	// again nor lost.
	Quarantine(ctx context.Context) error
	Close() error
}

// Compression selects when the file store gzips its output.
type Compression int

const (
	CompressAuto Compression = iota
	CompressOff
	CompressOn
)

func (c Compression) String() string {
	switch c {
	case CompressOff:
		return "off"
	case CompressOn:
		return "on"
	}
	return "auto"
}

// ParseCompression accepts "auto", "on" / "gzip" and "off" / "none".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CompressAuto, nil
	case "on", "gzip", "true":
		return CompressOn, nil
	case "off", "none", "false":
		return CompressOff, nil
	}
	return CompressAuto, fmt.Errorf("unknown compression %q", s)
}

// Saver serializes writes to a Store. A save requested while another is
// running is rejected with ErrSaveInFlight rather than queued.
type Saver struct {
	store Store
	mu    sync.Mutex
}

// NewSaver wraps s.
func NewSaver(s Store) *Saver {
	return &Saver{store: s}
}

// Save writes data unless a save is already running.
func (s *Saver) Save(ctx context.Context, data []byte) error {
	if !s.mu.TryLock() {
		logging.Logger().Debug("store: save skipped, one in flight")
		return ErrSaveInFlight
	}
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, data); err != nil {
		return err
	}
	logging.Logger().Info("store: session saved", "bytes", len(data))
	return nil
}

// Store returns the wrapped store.
func (s *Saver) Store() Store {
	return s.store
}
