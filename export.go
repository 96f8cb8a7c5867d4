package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"sketchover/internal/render"
)

const exportPadding = 16

// exportPNG writes the active page, cropped to its shapes, to path.
func (m model) exportPNG(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return render.SavePNG(path, m.contentSnapshot(), m.fonts, render.ImageOptions{Padding: exportPadding})
}

// export renders in the background from a snapshot taken now.
func (m model) export() tea.Cmd {
	snap := m.contentSnapshot()
	name := fmt.Sprintf("%s-page%d-%s.png", snap.Board.ID, snap.Page+1, time.Now().Format("20060102-150405"))
	path := filepath.Join(m.exportDir, name)
	return func() tea.Msg {
		// faces are not shared with the measurer the machine uses
		fonts, err := render.NewFonts()
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return exportedMsg{path: path, err: err}
		}
		return exportedMsg{path: path, err: render.SavePNG(path, snap, fonts, render.ImageOptions{Padding: exportPadding})}
	}
}
