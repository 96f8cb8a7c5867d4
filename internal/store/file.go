package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"sketchover/internal/logging"
)

// DefaultCompressThreshold is the size above which CompressAuto gzips.
const DefaultCompressThreshold = 100 << 10

// DefaultFileName is the session file inside the session directory.
const DefaultFileName = "session.json"

// FileOptions configures a File store.
type FileOptions struct {
	Dir         string
	Name        string
	Compression Compression
	Threshold   int
	// Backups is how many previous versions to keep next to the file.
	Backups int
	// MaxBytes bounds how much a compressed file may expand to when read.
	MaxBytes int
}

// File keeps the session in a single file, replaced atomically on every
// save.
type File struct {
	opts FileOptions
}

// NewFile creates the session directory if needed.
func NewFile(opts FileOptions) (*File, error) {
	if opts.Dir == "" {
		return nil, errors.New("store: empty session directory")
	}
	if opts.Name == "" {
		opts.Name = DefaultFileName
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultCompressThreshold
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 64 << 20
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &File{opts: opts}, nil
}

// Path returns the session file path.
func (f *File) Path() string {
	return filepath.Join(f.opts.Dir, f.opts.Name)
}

// Load reads the session, transparently decompressing gzip data.
func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !isGzip(raw) {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip session: %w", err)
	}
	defer zr.Close()
	// Read one byte past the cap so the decoder can report the overflow.
	data, err := io.ReadAll(io.LimitReader(zr, int64(f.opts.MaxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("decompress session: %w", err)
	}
	return data, nil
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// Save writes data to a temporary file in the session directory and
// renames it over the session file, keeping backups of earlier versions.
func (f *File) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := data
	if f.compress(len(data)) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compress session: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress session: %w", err)
		}
		payload = buf.Bytes()
	}

	tmp, err := os.CreateTemp(f.opts.Dir, f.opts.Name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session: %w", err)
	}

	f.rotate()
	if err := os.Rename(tmpName, f.Path()); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (f *File) compress(n int) bool {
	switch f.opts.Compression {
	case CompressOn:
		return true
	case CompressOff:
		return false
	}
	return n > f.opts.Threshold
}

// rotate shifts session.json.1 .. .N up by one and copies the current file
// to .1. Failures only cost a backup, so they are logged.
func (f *File) rotate() {
	if f.opts.Backups <= 0 {
		return
	}
	cur := f.Path()
	if _, err := os.Stat(cur); err != nil {
		return
	}
	os.Remove(f.backupPath(f.opts.Backups))
	for i := f.opts.Backups - 1; i >= 1; i-- {
		if err := os.Rename(f.backupPath(i), f.backupPath(i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Logger().Warn("store: rotate backup", "err", err)
		}
	}
	data, err := os.ReadFile(cur)
	if err == nil {
		err = os.WriteFile(f.backupPath(1), data, 0o644)
	}
	if err != nil {
		logging.Logger().Warn("store: write backup", "err", err)
	}
}

func (f *File) backupPath(i int) string {
	return fmt.Sprintf("%s.%d", f.Path(), i)
}

// Backups lists existing backup files, newest first.
func (f *File) Backups() []string {
	matches, _ := filepath.Glob(f.Path() + ".[0-9]*")
	sort.Slice(matches, func(i, j int) bool {
		return backupIndex(matches[i]) < backupIndex(matches[j])
	})
	return matches
}

func backupIndex(p string) int {
	var n int
	fmt.Sscanf(p[strings.LastIndex(p, ".")+1:], "%d", &n)
	return n
}

// Quarantine renames the session file so a corrupt session is kept for
// inspection and a fresh one can be written.
func (f *File) Quarantine(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := fmt.Sprintf("%s.corrupt-%s", f.Path(), time.Now().Format("20060102-150405"))
	if err := os.Rename(f.Path(), dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("quarantine session: %w", err)
	}
	logging.Logger().Warn("store: corrupt session moved aside", "path", dst)
	return nil
}

func (f *File) Close() error { return nil }
