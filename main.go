package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"sketchover/internal/board"
	"sketchover/internal/geom"
	"sketchover/internal/input"
	"sketchover/internal/keymap"
	"sketchover/internal/logging"
	"sketchover/internal/render"
	"sketchover/internal/session"
	"sketchover/internal/store"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", defaultConfigPath(), "path to the TOML config file")
		boardID    = pflag.StringP("board", "b", "", "board to start on")
		freeze     = pflag.Bool("freeze", false, "start with the background frozen")
		sessionDir = pflag.String("session-dir", "", "directory sessions are saved in")
		storeKind  = pflag.String("store", "", "session store: file or sqlite")
		logPath    = pflag.String("log", "", "write a debug log to this file")
		exportPath = pflag.String("export", "", "render the saved active page to this PNG file and exit")
	)
	pflag.Parse()

	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logging.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sketchover: %v (using defaults)\n", err)
	}
	if *sessionDir != "" {
		config.Session.Dir = *sessionDir
	}
	if *storeKind != "" {
		config.Session.Store = *storeKind
	}

	m, err := newModel(config, *configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer m.saver.Store().Close()

	if *boardID != "" {
		if err := m.machine.SwitchBoard(*boardID); err != nil {
			fmt.Fprintf(os.Stderr, "sketchover: board %q: %v\n", *boardID, err)
		}
	}
	if *freeze {
		m.machine.SetFrozen(true)
	}

	if *exportPath != "" {
		if err := m.exportPNG(*exportPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	stopWatch := watchConfig(*configPath, p.Send)
	stopAutosave := scheduleAutosave(config.Session.Autosave, p.Send)
	final, err := p.Run()
	stopAutosave()
	stopWatch()
	if err != nil {
		log.Fatal(err)
	}
	if fm, ok := final.(model); ok {
		if err := fm.saveNow(context.Background(), "exit"); err != nil {
			fmt.Fprintf(os.Stderr, "sketchover: save failed: %v\n", err)
		}
	}
}

// newModel builds the canvas from config, restores the saved session and
// wires the machine to the renderers.
func newModel(config *Config, configPath string) (model, error) {
	warn := func(what string, err error) {
		if err != nil {
			logging.Logger().Warn("config: "+what, "err", err)
		}
	}
	specs, err := config.BoardSpecs()
	warn("boards", err)
	tools, err := config.ToolState(input.DefaultToolState())
	warn("drawing", err)
	bindings, err := config.Bindings()
	warn("keybindings", err)
	presets, err := config.ToolPresets()
	warn("presets", err)

	cs, err := board.New(specs, config.BoardOptions())
	if err != nil {
		return model{}, err
	}

	st, err := config.openStore(config.Session.Store)
	if err != nil {
		return model{}, err
	}
	opts := config.SessionOptions()
	tools = restoreSession(st, cs, tools, opts)

	fonts, err := render.NewFonts()
	if err != nil {
		st.Close()
		return model{}, err
	}
	machine := input.New(cs, tools, input.Options{
		Bindings:          bindings,
		Measurer:          fonts,
		MaxShapesPerFrame: opts.MaxShapesPerFrame,
		Presets:           presets,
	})
	if id := config.Boards.DefaultBoard; id != "" && cs.Active().Spec.ID == board.OverlayID {
		warn("default board", machine.SwitchBoard(id))
	}

	return model{
		machine:    machine,
		terminal:   render.NewTerminal(fonts),
		fonts:      fonts,
		config:     config,
		bindings:   bindings,
		saver:      store.NewSaver(st),
		sessOpts:   opts,
		configPath: configPath,
		exportDir:  filepath.Join(config.SessionDir(), "exports"),
	}, nil
}

// restoreSession loads the saved session into cs and returns the tool
// state to start with. A corrupt session is set aside and the canvas
// starts empty.
func restoreSession(st store.Store, cs *board.CanvasSet, tools input.ToolState, opts session.Options) input.ToolState {
	ctx := context.Background()
	data, err := st.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return tools
	}
	if err != nil {
		logging.Logger().Warn("session: load failed", "err", err)
		return tools
	}
	sess, err := session.Decode(data, cs.HistoryLimit(), opts)
	if err != nil {
		logging.Logger().Warn("session: discarded", "err", err)
		if errors.Is(err, session.ErrCorrupt) {
			if qerr := st.Quarantine(ctx); qerr != nil {
				logging.Logger().Warn("session: quarantine failed", "err", qerr)
			}
		}
		return tools
	}
	sess.Apply(cs)
	logging.Logger().Info("session: restored", "boards", len(sess.Boards))
	return sess.Tools(tools)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vp := m.terminal.Viewport(msg.Width, max(msg.Height-1, 1))
		return m, m.handle(input.Resize{Width: vp.X, Height: vp.Y})

	case tea.KeyMsg:
		if m.help {
			m.help = false
			return m, nil
		}
		ev := keyEvent(msg)
		if ev.Key == "v" && ev.Mods == keymap.ModCtrl {
			return m, pasteClipboard
		}
		return m, m.handle(ev)

	case tea.MouseMsg:
		var cmds []tea.Cmd
		for _, ev := range m.mouseEvents(msg) {
			cmds = append(cmds, m.handle(ev))
		}
		return m, tea.Batch(cmds...)

	case clipboardMsg:
		if msg.err != nil {
			m.machine.Notify("Clipboard unavailable")
			return m, nil
		}
		return m, m.handle(input.TextPaste{Text: msg.text})

	case autosaveMsg:
		return m, m.save("autosave")

	case savedMsg:
		if msg.err != nil {
			// try again on the next autosave
			m.machine.SetModified(true)
		}
		if msg.err != nil && !errors.Is(msg.err, store.ErrSaveInFlight) {
			logging.Logger().Warn("session: save failed", "reason", msg.reason, "err", msg.err)
			m.machine.Notify("Save failed")
		} else if msg.err == nil && msg.reason == "user" {
			m.machine.Notify("Session saved")
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.machine.Notify("Export failed: " + msg.err.Error())
		} else {
			m.machine.Notify("Exported " + filepath.Base(msg.path))
		}
		return m, nil

	case configReloadMsg:
		m.reloadConfig()
		return m, nil
	}
	return m, nil
}

// handle feeds ev to the machine and turns its effects into commands.
func (m *model) handle(ev input.Event) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range m.machine.Handle(ev) {
		switch e := eff.(type) {
		case input.Quit:
			m.quit = true
			cmds = append(cmds, tea.Quit)
		case input.SaveRequest:
			cmds = append(cmds, m.save(e.Reason))
		case input.CopyText:
			text := e.Text
			cmds = append(cmds, func() tea.Msg {
				if err := writeClipboardText(text); err != nil {
					logging.Logger().Warn("clipboard: write failed", "err", err)
				}
				return nil
			})
		case input.FreezeChanged:
			logging.Logger().Info("freeze changed", "frozen", e.Frozen)
		case input.ReloadConfig:
			m.reloadConfig()
		case input.ExportImage:
			cmds = append(cmds, m.export())
		case input.ToggleHelp:
			m.help = !m.help
		}
	}
	// the terminal view is redrawn whole
	m.machine.TakeDirty()
	return tea.Batch(cmds...)
}

// save encodes the session now and writes it in the background. Encoding
// must happen here since the machine is not safe for concurrent use.
// Autosaves are skipped while nothing has changed.
func (m *model) save(reason string) tea.Cmd {
	if m.quit {
		// the final save runs after the program exits
		return nil
	}
	if reason == "autosave" && !m.machine.Modified() {
		return nil
	}
	data, err := session.Encode(m.machine.Canvas(), m.machine.Tools(), m.sessOpts)
	if err != nil {
		return func() tea.Msg { return savedMsg{reason: reason, err: err} }
	}
	m.machine.SetModified(false)
	saver := m.saver
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return savedMsg{reason: reason, err: saver.Save(ctx, data)}
	}
}

func (m model) saveNow(ctx context.Context, reason string) error {
	data, err := session.Encode(m.machine.Canvas(), m.machine.Tools(), m.sessOpts)
	if err != nil {
		return err
	}
	logging.Logger().Info("session: saving", "reason", reason)
	return m.saver.Save(ctx, data)
}

func pasteClipboard() tea.Msg {
	text, err := readClipboardText()
	return clipboardMsg{text: text, err: err}
}

// reloadConfig re-reads the config file and applies what can change while
// running: key bindings, history depth, presets and drawing defaults.
func (m *model) reloadConfig() {
	config, err := loadConfig(m.configPath)
	if err != nil {
		logging.Logger().Warn("config: reload failed", "err", err)
		m.machine.Notify("Config error, keeping previous settings")
		return
	}
	config.Session = m.config.Session
	bindings, err := config.Bindings()
	if err != nil {
		logging.Logger().Warn("config: keybindings", "err", err)
	}
	tools, err := config.ToolState(m.machine.Tools())
	if err != nil {
		logging.Logger().Warn("config: drawing", "err", err)
	}
	presets, err := config.ToolPresets()
	if err != nil {
		logging.Logger().Warn("config: presets", "err", err)
	}
	m.machine.SetBindings(bindings)
	m.machine.SetTools(tools)
	m.machine.SetPresets(presets)
	if config.History.UndoLimit > 0 {
		m.machine.Canvas().SetHistoryLimit(config.History.UndoLimit)
	}
	m.config = config
	m.bindings = bindings
	m.machine.Notify("Config reloaded")
	logging.Logger().Info("config: reloaded", "path", m.configPath)
}

var helpStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.help {
		return m.helpView()
	}
	return m.terminal.Render(m.machine.Snapshot(), m.width, m.height)
}

func (m model) helpView() string {
	var entries []helpEntry
	for _, a := range m.bindings.Actions() {
		chords := m.bindings.Chords(a)
		names := make([]string, len(chords))
		for i, c := range chords {
			names[i] = c.String()
		}
		entries = append(entries, helpEntry{action: a, chords: strings.Join(names, ", ")})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].action < entries[j].action })

	rows := max(m.height-4, 1)
	cols := (len(entries) + rows - 1) / rows
	columns := make([]string, 0, cols)
	for c := 0; c < cols; c++ {
		var b strings.Builder
		for _, e := range entries[c*rows : min((c+1)*rows, len(entries))] {
			fmt.Fprintf(&b, "%-24s %s\n", e.action, e.chords)
		}
		columns = append(columns, strings.TrimRight(b.String(), "\n"))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(columns, "   ")...)
	return helpStyle.Render(body) + "\nany key to close"
}

func intersperse(items []string, sep string) []string {
	var out []string
	for i, it := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return out
}

// contentSnapshot returns the snapshot with the viewport cleared so
// exports are sized to their content.
func (m model) contentSnapshot() input.Snapshot {
	snap := m.machine.Snapshot()
	snap.Viewport = geom.Point{}
	return snap
}
