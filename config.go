package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"sketchover/internal/board"
	"sketchover/internal/input"
	"sketchover/internal/keymap"
	"sketchover/internal/session"
	"sketchover/internal/shape"
	"sketchover/internal/store"
)

type Config struct {
	Drawing     DrawingConfig       `toml:"drawing"`
	History     HistoryConfig       `toml:"history"`
	Boards      BoardsConfig        `toml:"boards"`
	Board       *LegacyBoardConfig  `toml:"board"`
	Session     SessionConfig       `toml:"session"`
	Presets     []PresetConfig      `toml:"presets"`
	Keybindings map[string][]string `toml:"keybindings"`
}

type DrawingConfig struct {
	Color          string  `toml:"color"`
	Thickness      float64 `toml:"thickness"`
	FontFamily     string  `toml:"font_family"`
	FontSize       float64 `toml:"font_size"`
	Fill           bool    `toml:"fill"`
	TextBackground bool    `toml:"text_background"`
	NoteColor      string  `toml:"note_color"`
	ArrowLength    float64 `toml:"arrow_length"`
	ArrowAngle     float64 `toml:"arrow_angle"`
	ArrowHeadAtEnd *bool   `toml:"arrow_head_at_end"`
	EraserSize     float64 `toml:"eraser_size"`
	EraserMode     string  `toml:"eraser_mode"`
	MarkerOpacity  float64 `toml:"marker_opacity"`
	HitTolerance   float64 `toml:"hit_tolerance"`
	Smoothing      *bool   `toml:"smoothing"`
}

// PresetConfig fills one tool preset slot (1 to keymap.PresetSlots).
// Unset optional fields keep the current setting when applied.
type PresetConfig struct {
	Slot           int      `toml:"slot"`
	Name           string   `toml:"name"`
	Tool           string   `toml:"tool"`
	Color          string   `toml:"color"`
	Size           float64  `toml:"size"`
	EraserMode     string   `toml:"eraser_mode"`
	MarkerOpacity  *float64 `toml:"marker_opacity"`
	Fill           *bool    `toml:"fill"`
	FontSize       *float64 `toml:"font_size"`
	TextBackground *bool    `toml:"text_background"`
	ArrowLength    *float64 `toml:"arrow_length"`
	ArrowAngle     *float64 `toml:"arrow_angle"`
	ArrowHeadAtEnd *bool    `toml:"arrow_head_at_end"`
}

type HistoryConfig struct {
	UndoLimit int `toml:"undo_limit"`
}

type BoardsConfig struct {
	MaxCount     int         `toml:"max_count"`
	DefaultBoard string      `toml:"default_board"`
	Items        []BoardItem `toml:"items"`
}

// BoardItem describes one board. Background is "transparent" or a hex
// color.
type BoardItem struct {
	ID            string `toml:"id"`
	Name          string `toml:"name"`
	Background    string `toml:"background"`
	PenColor      string `toml:"pen_color"`
	AutoAdjustPen *bool  `toml:"auto_adjust_pen"`
	Persist       *bool  `toml:"persist"`
	Pinned        bool   `toml:"pinned"`
}

// LegacyBoardConfig is the older flat form that only recolors the
// whiteboard and blackboard.
type LegacyBoardConfig struct {
	Whiteboard    string `toml:"whiteboard"`
	Blackboard    string `toml:"blackboard"`
	AutoAdjustPen *bool  `toml:"auto_adjust_pen"`
}

type SessionConfig struct {
	Dir               string `toml:"dir"`
	Store             string `toml:"store"`
	PersistHistory    *bool  `toml:"persist_history"`
	Compression       string `toml:"compression"`
	MaxShapesPerFrame int    `toml:"max_shapes_per_frame"`
	MaxFileSize       int    `toml:"max_file_size"`
	BackupRetention   int    `toml:"backup_retention"`
	// Autosave is a cron spec such as "@every 30s". Empty disables it.
	Autosave string `toml:"autosave"`
}

func defaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Store:           "file",
			Compression:     "auto",
			BackupRetention: 1,
			Autosave:        "@every 30s",
		},
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sketchover.toml"
	}
	return filepath.Join(dir, "sketchover", "config.toml")
}

// loadConfig reads path over the defaults. A missing file is not an
// error; an unreadable one returns the defaults together with the error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	parsed := defaultConfig()
	if err := toml.Unmarshal(data, parsed); err != nil {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}
	return parsed, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// SessionDir returns the directory sessions are saved in.
func (c *Config) SessionDir() string {
	if c.Session.Dir != "" {
		dir := expandHome(c.Session.Dir)
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sketchover")
	}
	return ".sketchover"
}

// ToolState overlays the drawing section on base. Bad values are reported
// and skipped.
func (c *Config) ToolState(base input.ToolState) (input.ToolState, error) {
	d := c.Drawing
	t := base
	var errs []error
	if d.Color != "" {
		if col, err := shape.ParseHex(d.Color); err != nil {
			errs = append(errs, err)
		} else {
			t.Color = col
		}
	}
	if d.NoteColor != "" {
		if col, err := shape.ParseHex(d.NoteColor); err != nil {
			errs = append(errs, err)
		} else {
			t.NoteColor = col
		}
	}
	if d.EraserMode != "" {
		if mode, err := input.ParseEraserMode(strings.ToLower(d.EraserMode)); err != nil {
			errs = append(errs, err)
		} else {
			t.EraserMode = mode
		}
	}
	setf := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	setf(&t.Thickness, d.Thickness)
	setf(&t.Font.Size, d.FontSize)
	setf(&t.ArrowLength, d.ArrowLength)
	setf(&t.ArrowAngle, d.ArrowAngle)
	setf(&t.EraserSize, d.EraserSize)
	setf(&t.MarkerOpacity, d.MarkerOpacity)
	setf(&t.Tolerance, d.HitTolerance)
	if d.FontFamily != "" {
		t.Font.Family = d.FontFamily
	}
	t.Fill = t.Fill || d.Fill
	t.TextBackground = t.TextBackground || d.TextBackground
	if d.ArrowHeadAtEnd != nil {
		t.ArrowHeadAtEnd = *d.ArrowHeadAtEnd
	}
	if d.Smoothing != nil {
		t.Smoothing = *d.Smoothing
	}
	t.Normalize()
	return t, errors.Join(errs...)
}

// BoardSpecs returns the configured boards, falling back to the defaults
// recolored by a legacy [board] section.
func (c *Config) BoardSpecs() ([]board.Spec, error) {
	if len(c.Boards.Items) == 0 {
		return c.legacySpecs()
	}
	var (
		specs []board.Spec
		errs  []error
	)
	for _, it := range c.Boards.Items {
		s, err := it.spec()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, s)
	}
	return specs, errors.Join(errs...)
}

func (c *Config) legacySpecs() ([]board.Spec, error) {
	specs := board.DefaultSpecs()
	if c.Board == nil {
		return specs, nil
	}
	var errs []error
	for i := range specs {
		var hex string
		switch specs[i].ID {
		case "whiteboard":
			hex = c.Board.Whiteboard
		case "blackboard":
			hex = c.Board.Blackboard
		default:
			continue
		}
		if hex != "" {
			col, err := shape.ParseHex(hex)
			if err != nil {
				errs = append(errs, err)
			} else {
				specs[i].Background = board.Solid(col)
			}
		}
		if c.Board.AutoAdjustPen != nil {
			specs[i].AutoAdjustPen = *c.Board.AutoAdjustPen
		}
	}
	return specs, errors.Join(errs...)
}

func (it BoardItem) spec() (board.Spec, error) {
	id := strings.TrimSpace(it.ID)
	if id == "" {
		return board.Spec{}, fmt.Errorf("board %q: missing id", it.Name)
	}
	s := board.Spec{ID: id, Name: it.Name, Persist: true, Pinned: it.Pinned, Background: board.TransparentBackground()}
	if s.Name == "" {
		s.Name = id
	}
	if bg := strings.TrimSpace(it.Background); bg != "" && !strings.EqualFold(bg, "transparent") {
		col, err := shape.ParseHex(bg)
		if err != nil {
			return board.Spec{}, fmt.Errorf("board %q: %w", id, err)
		}
		s.Background = board.Solid(col)
		s.AutoAdjustPen = true
	}
	if it.PenColor != "" {
		col, err := shape.ParseHex(it.PenColor)
		if err != nil {
			return board.Spec{}, fmt.Errorf("board %q: %w", id, err)
		}
		s.PenColor = &col
	}
	if it.AutoAdjustPen != nil {
		s.AutoAdjustPen = *it.AutoAdjustPen
	}
	if it.Persist != nil {
		s.Persist = *it.Persist
	}
	return s, nil
}

func (c *Config) BoardOptions() board.Options {
	return board.Options{MaxBoards: c.Boards.MaxCount, HistoryLimit: c.History.UndoLimit}
}

func (c *Config) SessionOptions() session.Options {
	opts := session.DefaultOptions()
	if c.Session.PersistHistory != nil {
		opts.PersistHistory = *c.Session.PersistHistory
	}
	if c.Session.MaxShapesPerFrame > 0 {
		opts.MaxShapesPerFrame = c.Session.MaxShapesPerFrame
	}
	if c.Session.MaxFileSize > 0 {
		opts.MaxBytes = c.Session.MaxFileSize
	}
	return opts
}

// ToolPresets returns the configured presets indexed by slot-1. Invalid
// entries are skipped and reported.
func (c *Config) ToolPresets() ([]*input.Preset, error) {
	presets := make([]*input.Preset, keymap.PresetSlots)
	var errs []error
	for _, pc := range c.Presets {
		if pc.Slot < 1 || pc.Slot > keymap.PresetSlots {
			errs = append(errs, fmt.Errorf("preset %q: slot %d out of range 1-%d", pc.Name, pc.Slot, keymap.PresetSlots))
			continue
		}
		p, err := pc.preset()
		if err != nil {
			errs = append(errs, fmt.Errorf("preset %d: %w", pc.Slot, err))
			continue
		}
		presets[pc.Slot-1] = p
	}
	return presets, errors.Join(errs...)
}

func (pc PresetConfig) preset() (*input.Preset, error) {
	tool, err := input.ParseTool(strings.ToLower(pc.Tool))
	if err != nil {
		return nil, err
	}
	col, err := shape.ParseHex(pc.Color)
	if err != nil {
		return nil, err
	}
	p := &input.Preset{
		Name:           pc.Name,
		Tool:           tool,
		Color:          col,
		Size:           pc.Size,
		MarkerOpacity:  pc.MarkerOpacity,
		Fill:           pc.Fill,
		FontSize:       pc.FontSize,
		TextBackground: pc.TextBackground,
		ArrowLength:    pc.ArrowLength,
		ArrowAngle:     pc.ArrowAngle,
		ArrowHeadAtEnd: pc.ArrowHeadAtEnd,
	}
	if pc.EraserMode != "" {
		mode, err := input.ParseEraserMode(strings.ToLower(pc.EraserMode))
		if err != nil {
			return nil, err
		}
		p.EraserMode = &mode
	}
	return p, nil
}

func (c *Config) Bindings() (*keymap.Map, error) {
	return keymap.Build(c.Keybindings)
}

// openStore opens the session store named by kind ("file" or "sqlite").
func (c *Config) openStore(kind string) (store.Store, error) {
	dir := c.SessionDir()
	switch strings.ToLower(kind) {
	case "", "file":
		mode, err := store.ParseCompression(c.Session.Compression)
		if err != nil {
			return nil, err
		}
		return store.NewFile(store.FileOptions{
			Dir:         dir,
			Compression: mode,
			Backups:     c.Session.BackupRetention,
			MaxBytes:    c.SessionOptions().MaxBytes,
		})
	case "sqlite":
		return store.NewSQLite(filepath.Join(dir, "sessions.db"), c.Session.BackupRetention)
	}
	return nil, fmt.Errorf("unknown session store %q", kind)
}
