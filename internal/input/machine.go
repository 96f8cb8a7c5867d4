// Package input is the interaction core of the drawing overlay: a state
// machine that turns normalized pointer and keyboard events into edits of
// the active frame, tool changes and requests to its host.
//
// The machine is single-threaded and never blocks. The host feeds it
// events, reads Snapshot to render, drains TakeDirty for damage, and acts
// on the returned effects.
package input

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"sketchover/internal/board"
	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
	"sketchover/internal/logging"
	"sketchover/internal/shape"
)

// DefaultMaxShapesPerFrame caps a frame; adding beyond it evicts the
// oldest shapes.
const DefaultMaxShapesPerFrame = 10000

const (
	toastTTL          = 3 * time.Second
	doubleClickWindow = 400 * time.Millisecond
	clickSlop         = 3.0
)

// Options configures a Machine.
type Options struct {
	Bindings          *keymap.Map
	Measurer          shape.TextMeasurer
	MaxShapesPerFrame int
	Clock             func() time.Time
	// Presets fills the preset slots in order, starting with slot 1.
	Presets []*Preset
}

// Machine is the drawing state machine. The zero value is not usable; call
// New.
type Machine struct {
	canvas    *board.CanvasSet
	tools     ToolState
	bindings  *keymap.Map
	measurer  shape.TextMeasurer
	maxShapes int
	now       func() time.Time

	st        state
	selection []frame.ShapeID
	mods      keymap.Mod
	pointer   geom.Point
	viewport  geom.Point

	clipboard  []frame.DrawnShape
	pasteCount int
	presets    [keymap.PresetSlots]*Preset

	toast   string
	toastAt time.Time
	dirty   Dirty
	frozen  bool

	// modified is set by every history change and cleared by the host
	// once it has taken a copy to save.
	modified bool

	grids     map[frame.ShapeID]*shape.SegmentGrid
	lastClick struct {
		pos geom.Point
		at  time.Time
		id  frame.ShapeID
	}

	effects []Effect
}

// New returns a machine operating on canvas, starting idle with tools.
func New(canvas *board.CanvasSet, tools ToolState, opts Options) *Machine {
	if opts.Bindings == nil {
		opts.Bindings = keymap.Default()
	}
	if opts.Measurer == nil {
		opts.Measurer = shape.ApproxMeasurer{}
	}
	if opts.MaxShapesPerFrame < 1 {
		opts.MaxShapesPerFrame = DefaultMaxShapesPerFrame
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	tools.Normalize()
	m := &Machine{
		canvas:    canvas,
		tools:     tools,
		bindings:  opts.Bindings,
		measurer:  opts.Measurer,
		maxShapes: opts.MaxShapesPerFrame,
		now:       opts.Clock,
		st:        idle{},
		viewport:  geom.Pt(1920, 1080),
		grids:     make(map[frame.ShapeID]*shape.SegmentGrid),
	}
	m.SetPresets(opts.Presets)
	m.dirty.MarkFull()
	return m
}

// Handle processes one event and returns the effects it produced.
func (m *Machine) Handle(ev Event) []Effect {
	switch e := ev.(type) {
	case PointerDown:
		m.mods = e.Mods
		m.pointer = e.Pos
		m.pointerDown(e)
	case PointerMove:
		m.mods = e.Mods
		m.pointer = e.Pos
		m.pointerMove(e)
	case PointerUp:
		m.mods = e.Mods
		m.pointer = e.Pos
		m.pointerUp(e)
	case KeyDown:
		m.keyDown(e)
	case KeyUp:
		m.mods = e.Mods
	case ModifiersChanged:
		m.mods = e.Mods
	case Scroll:
		m.mods = e.Mods
		m.scroll(e)
	case Resize:
		m.viewport = geom.Pt(e.Width, e.Height)
		m.dirty.MarkFull()
	case TextPaste:
		m.pasteText(e.Text)
	}
	out := m.effects
	m.effects = nil
	return out
}

// State returns the current interaction state.
func (m *Machine) State() StateKind {
	return m.st.kind()
}

// Tools returns a copy of the current tool state.
func (m *Machine) Tools() ToolState {
	return m.tools
}

// SetTools replaces the tool state, clamping out-of-range values.
func (m *Machine) SetTools(t ToolState) {
	t.Normalize()
	if t.Tool != m.tools.Tool {
		m.clearSelection()
	}
	m.tools = t
}

// SetBindings installs a new key map, typically after a config reload.
func (m *Machine) SetBindings(b *keymap.Map) {
	if b != nil {
		m.bindings = b
	}
}

// Canvas returns the board set the machine edits.
func (m *Machine) Canvas() *board.CanvasSet {
	return m.canvas
}

// Selection returns the selected shape IDs in selection order.
func (m *Machine) Selection() []frame.ShapeID {
	return append([]frame.ShapeID(nil), m.selection...)
}

// Frozen reports whether the host should keep showing a frozen background.
func (m *Machine) Frozen() bool {
	return m.frozen
}

// SetFrozen sets the frozen-background flag without emitting an effect,
// as when the host starts frozen.
func (m *Machine) SetFrozen(frozen bool) {
	m.frozen = frozen
	m.dirty.MarkFull()
}

// Modified reports whether any page changed since SetModified(false).
func (m *Machine) Modified() bool {
	return m.modified
}

// SetModified records whether the canvas holds unsaved changes.
func (m *Machine) SetModified(v bool) {
	m.modified = v
}

// Notify shows msg as a toast, for host-side outcomes such as a failed
// save.
func (m *Machine) Notify(msg string) {
	m.notify(msg)
}

// Toast returns the transient status message, if still visible.
func (m *Machine) Toast() string {
	if m.toast == "" || m.now().Sub(m.toastAt) > toastTTL {
		return ""
	}
	return m.toast
}

// TakeDirty returns the damage accumulated since the last call and resets
// it.
func (m *Machine) TakeDirty() Dirty {
	d := m.dirty
	m.dirty = Dirty{}
	return d
}

func (m *Machine) frame() *frame.Frame {
	return m.canvas.ActiveFrame()
}

func (m *Machine) setState(s state) {
	if m.st.kind() != s.kind() {
		logging.Logger().Debug("input: state", "from", m.st.kind(), "to", s.kind())
	}
	m.st = s
}

func (m *Machine) emit(e Effect) {
	m.effects = append(m.effects, e)
}

func (m *Machine) notify(msg string) {
	m.toast = msg
	m.toastAt = m.now()
	m.dirty.MarkFull()
}

// topmostAt returns the uppermost shape under p.
func (m *Machine) topmostAt(p geom.Point) (frame.DrawnShape, bool) {
	f := m.frame()
	for i := f.Len() - 1; i >= 0; i-- {
		d := f.At(i)
		if m.hit(d, p, m.tools.Tolerance) {
			return d, true
		}
	}
	return frame.DrawnShape{}, false
}

func (m *Machine) hit(d frame.DrawnShape, p geom.Point, tol float64) bool {
	return shape.HitTestIndexed(d.Shape, p, tol, m.measurer, m.grid(d))
}

// grid returns the cached segment index for large freehand shapes.
func (m *Machine) grid(d frame.DrawnShape) *shape.SegmentGrid {
	if !shape.NeedsIndex(d.Shape) {
		return nil
	}
	if g, ok := m.grids[d.ID]; ok {
		return g
	}
	var pts []geom.Point
	switch v := d.Shape.(type) {
	case shape.Stroke:
		pts = v.Points
	case shape.Marker:
		pts = v.Points
	}
	g := shape.NewSegmentGrid(pts, 32)
	m.grids[d.ID] = g
	return g
}

func (m *Machine) invalidate(ids ...frame.ShapeID) {
	for _, id := range ids {
		delete(m.grids, id)
	}
}

func (m *Machine) resetCaches() {
	m.grids = make(map[frame.ShapeID]*shape.SegmentGrid)
}

func (m *Machine) bounds(s shape.Shape) geom.Rect {
	return shape.Bounds(s, m.measurer)
}

// damage marks the bounds of the given shapes dirty.
func (m *Machine) damage(shapes ...shape.Shape) {
	for _, s := range shapes {
		if s != nil {
			m.dirty.Add(m.bounds(s).Inset(2))
		}
	}
}

// pruneSelection drops IDs no longer present in the active frame.
func (m *Machine) pruneSelection() {
	f := m.frame()
	m.selection = lo.Filter(m.selection, func(id frame.ShapeID, _ int) bool {
		return f.IndexOf(id) >= 0
	})
}

func (m *Machine) isSelected(id frame.ShapeID) bool {
	return lo.Contains(m.selection, id)
}

// selectionBounds returns the union of the bounds of the selected shapes.
func (m *Machine) selectionBounds() (geom.Rect, bool) {
	f := m.frame()
	var (
		r  geom.Rect
		ok bool
	)
	for _, id := range m.selection {
		d, found := f.Get(id)
		if !found {
			continue
		}
		b := m.bounds(d.Shape)
		if !ok {
			r, ok = b, true
		} else {
			r = r.Union(b)
		}
	}
	return r, ok
}

// commit applies a to the active frame and records it, then refreshes
// caches and damage for the shapes it touched.
func (m *Machine) commit(a frame.Action) {
	if a == nil {
		return
	}
	f := m.frame()
	m.damageAction(a)
	f.Apply(a)
	m.afterChange(a)
}

// record pushes an action whose effects were already applied live.
func (m *Machine) record(a frame.Action) {
	if a == nil {
		return
	}
	m.frame().Record(a)
	m.afterChange(a)
}

func (m *Machine) afterChange(a frame.Action) {
	m.invalidate(frame.Affected(a)...)
	m.damageAction(a)
	m.pruneSelection()
	m.modified = true
}

func (m *Machine) damageAction(a frame.Action) {
	f := m.frame()
	for _, id := range frame.Affected(a) {
		if d, ok := f.Get(id); ok {
			m.damage(d.Shape)
		}
	}
}

// addShapes commits new shapes on top of the frame as one action. When
// that would exceed the shape cap the oldest shapes are evicted within the
// same action, unlocked ones first.
func (m *Machine) addShapes(shapes ...shape.Shape) []frame.ShapeID {
	if len(shapes) == 0 {
		return nil
	}
	f := m.frame()
	var actions []frame.Action

	if excess := f.Len() + len(shapes) - m.maxShapes; excess > 0 {
		victims := f.Oldest(excess)
		idx := make([]int, len(victims))
		for i, v := range victims {
			idx[i] = f.IndexOf(v.ID)
		}
		// Remove from the top down so recorded indices stay valid.
		order := lo.Range(len(victims))
		sort.Slice(order, func(a, b int) bool { return idx[order[a]] > idx[order[b]] })
		for _, i := range order {
			actions = append(actions, frame.Remove{Index: idx[i], Shape: victims[i]})
		}
		logging.Logger().Warn("input: shape cap reached, evicting oldest", "cap", m.maxShapes, "evicted", len(victims))
		m.notify("Shape limit reached; oldest shapes removed")
		m.dirty.MarkFull()
	}

	n := f.Len() - (len(actions))
	ids := make([]frame.ShapeID, 0, len(shapes))
	now := m.now()
	for i, s := range shapes {
		d := f.NewShape(s, now)
		actions = append(actions, frame.Add{Index: n + i, Shape: d})
		ids = append(ids, d.ID)
		m.damage(s)
	}
	m.commit(frame.NewBatch(actions...))
	return ids
}

// Dirty is the damage to repaint: either everything or a rectangle.
type Dirty struct {
	Full bool
	Rect geom.Rect
	set  bool
}

// Add extends the damage to cover r.
func (d *Dirty) Add(r geom.Rect) {
	if d.Full {
		return
	}
	if !d.set {
		d.Rect, d.set = r, true
		return
	}
	d.Rect = d.Rect.Union(r)
}

// MarkFull requests a full repaint.
func (d *Dirty) MarkFull() {
	d.Full = true
}

// Empty reports whether nothing needs repainting.
func (d Dirty) Empty() bool {
	return !d.Full && !d.set
}
