package main

import (
	"sketchover/internal/input"
	"sketchover/internal/keymap"
	"sketchover/internal/render"
	"sketchover/internal/session"
	"sketchover/internal/store"
)

type model struct {
	width  int
	height int

	machine  *input.Machine
	terminal *render.Terminal
	fonts    *render.Fonts
	config   *Config
	bindings *keymap.Map
	saver    *store.Saver
	sessOpts session.Options

	configPath string
	exportDir  string

	// pressed is the button held since the last press, if any.
	pressed *input.Button
	help    bool
	quit    bool
}

// configReloadMsg is sent by the watcher after the config file changes.
type configReloadMsg struct{}

// autosaveMsg is sent by the autosave schedule.
type autosaveMsg struct{}

// savedMsg reports the outcome of a background save.
type savedMsg struct {
	reason string
	err    error
}

// clipboardMsg carries system clipboard text to paste.
type clipboardMsg struct {
	text string
	err  error
}

// exportedMsg reports the outcome of a PNG export.
type exportedMsg struct {
	path string
	err  error
}

// helpEntry is one row of the help overlay.
type helpEntry struct {
	action keymap.Action
	chords string
}
