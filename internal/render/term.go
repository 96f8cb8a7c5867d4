package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"sketchover/internal/geom"
	"sketchover/internal/input"
	"sketchover/internal/shape"
)

// Default terminal cell size in canvas pixels.
const (
	DefaultCellWidth  = 8.0
	DefaultCellHeight = 16.0
)

type cell struct {
	ch     rune
	fg, bg *shape.Color
	// cont marks the right half of a wide rune.
	cont      bool
	reverse   bool
	faint     bool
	underline bool
}

// Terminal draws snapshots as a grid of styled cells. Each cell covers
// CellWidth by CellHeight canvas pixels.
type Terminal struct {
	CellWidth  float64
	CellHeight float64
	// Measurer must be the one the machine lays text out with.
	Measurer shape.TextMeasurer
}

// NewTerminal returns a renderer using the default cell size.
func NewTerminal(m shape.TextMeasurer) *Terminal {
	return &Terminal{CellWidth: DefaultCellWidth, CellHeight: DefaultCellHeight, Measurer: m}
}

// ToCanvas maps a terminal cell to the canvas point at its center.
func (t *Terminal) ToCanvas(col, row int) geom.Point {
	return geom.Pt((float64(col)+0.5)*t.CellWidth, (float64(row)+0.5)*t.CellHeight)
}

// Viewport returns the canvas size covered by cols by rows cells.
func (t *Terminal) Viewport(cols, rows int) geom.Point {
	return geom.Pt(float64(cols)*t.CellWidth, float64(rows)*t.CellHeight)
}

type grid struct {
	t          *Terminal
	cols, rows int
	cells      [][]cell
}

func (t *Terminal) newGrid(cols, rows int) *grid {
	g := &grid{t: t, cols: cols, rows: rows, cells: make([][]cell, rows)}
	for i := range g.cells {
		g.cells[i] = make([]cell, cols)
		for j := range g.cells[i] {
			g.cells[i][j].ch = ' '
		}
	}
	return g
}

func (g *grid) cellOf(p geom.Point) (int, int) {
	return int(math.Floor(p.X / g.t.CellWidth)), int(math.Floor(p.Y / g.t.CellHeight))
}

func (g *grid) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return nil
	}
	return &g.cells[row][col]
}

func (g *grid) put(col, row int, ch rune, fg shape.Color) {
	c := g.at(col, row)
	if c == nil {
		return
	}
	c.ch, c.cont = ch, false
	c.fg = &fg
}

func (g *grid) fill(col, row int, bg shape.Color) {
	if c := g.at(col, row); c != nil {
		c.bg = &bg
	}
}

// text writes s starting at col, giving wide runes two cells. It returns
// the column after the last rune written.
func (g *grid) text(col, row int, s string, fg shape.Color) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > g.cols {
			break
		}
		g.put(col, row, r, fg)
		if w == 2 {
			if c := g.at(col+1, row); c != nil {
				c.ch, c.cont = 0, true
			}
		}
		col += w
	}
	return col
}

// segment plots the cells crossed by ab with a glyph matching its slope.
func (g *grid) segment(a, b geom.Point, fg shape.Color, ch rune) {
	if ch == 0 {
		ch = lineGlyph(b.Sub(a), g.t.CellWidth/g.t.CellHeight)
	}
	step := math.Min(g.t.CellWidth, g.t.CellHeight) / 2
	n := int(math.Ceil(a.Distance(b)/step)) + 1
	for i := 0; i <= n; i++ {
		col, row := g.cellOf(a.Lerp(b, float64(i)/float64(n)))
		g.put(col, row, ch, fg)
	}
}

func (g *grid) polyline(pts []geom.Point, fg shape.Color, ch rune) {
	if len(pts) == 1 {
		col, row := g.cellOf(pts[0])
		g.put(col, row, '•', fg)
		return
	}
	for i := 1; i < len(pts); i++ {
		g.segment(pts[i-1], pts[i], fg, ch)
	}
}

// lineGlyph picks a box-drawing rune for direction d. aspect is cell
// width over cell height.
func lineGlyph(d geom.Point, aspect float64) rune {
	dx, dy := math.Abs(d.X), math.Abs(d.Y)*aspect
	switch {
	case dy <= dx*0.4:
		return '─'
	case dx <= dy*0.4:
		return '│'
	case (d.X > 0) == (d.Y > 0):
		return '╲'
	}
	return '╱'
}

func arrowGlyph(d geom.Point) rune {
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			return '▶'
		}
		return '◀'
	}
	if d.Y >= 0 {
		return '▼'
	}
	return '▲'
}

// fillRect sets the background of every cell whose center is inside r.
func (g *grid) fillRect(r geom.Rect, bg shape.Color) {
	c0, r0 := g.cellOf(r.Min)
	c1, r1 := g.cellOf(r.Max)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if r.Contains(g.t.ToCanvas(col, row)) {
				g.fill(col, row, bg)
			}
		}
	}
}

func (g *grid) box(r geom.Rect, fg shape.Color, dashed bool) {
	h, v := '─', '│'
	if dashed {
		h, v = '┄', '┆'
	}
	c0, r0 := g.cellOf(r.Min)
	c1, r1 := g.cellOf(r.Max)
	for col := c0 + 1; col < c1; col++ {
		g.put(col, r0, h, fg)
		g.put(col, r1, h, fg)
	}
	for row := r0 + 1; row < r1; row++ {
		g.put(c0, row, v, fg)
		g.put(c1, row, v, fg)
	}
	g.put(c0, r0, '┌', fg)
	g.put(c1, r0, '┐', fg)
	g.put(c0, r1, '└', fg)
	g.put(c1, r1, '┘', fg)
}

func (g *grid) ellipse(e shape.Ellipse) {
	if e.Fill {
		c0, r0 := g.cellOf(geom.Pt(e.Center.X-e.RX, e.Center.Y-e.RY))
		c1, r1 := g.cellOf(geom.Pt(e.Center.X+e.RX, e.Center.Y+e.RY))
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				p := g.t.ToCanvas(col, row).Sub(e.Center)
				if e.RX > 0 && e.RY > 0 && (p.X*p.X)/(e.RX*e.RX)+(p.Y*p.Y)/(e.RY*e.RY) <= 1 {
					g.fill(col, row, e.Color)
				}
			}
		}
		return
	}
	n := int(math.Max(16, (e.RX+e.RY)/2))
	prev := geom.Pt(e.Center.X+e.RX, e.Center.Y)
	for i := 1; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		cur := geom.Pt(e.Center.X+e.RX*math.Cos(a), e.Center.Y+e.RY*math.Sin(a))
		g.segment(prev, cur, e.Color, 0)
		prev = cur
	}
}

// textBlock writes laid out lines, one terminal row per line height.
func (g *grid) textBlock(l shape.TextLayout, origin geom.Point, fg shape.Color) {
	col, row := g.cellOf(origin)
	lh := math.Max(1, math.Round(l.LineHeight/g.t.CellHeight))
	for i, line := range l.Lines {
		g.text(col, row+int(float64(i)*lh), line, fg)
	}
}

func (g *grid) shape(s shape.Shape) {
	m := g.t.Measurer
	switch v := s.(type) {
	case shape.Stroke:
		g.polyline(v.Points, v.Color, 0)
	case shape.Marker:
		g.polyline(v.Points, v.Color, '░')
	case shape.Line:
		g.segment(v.From, v.To, v.Color, 0)
	case shape.Rect:
		r := geom.Rect{Min: v.Min, Max: v.Max}
		if v.Fill {
			g.fillRect(r, v.Color)
			return
		}
		g.box(r, v.Color, false)
	case shape.Ellipse:
		g.ellipse(v)
	case shape.Arrow:
		g.segment(v.From, v.To, v.Color, 0)
		col, row := g.cellOf(v.Tip())
		g.put(col, row, arrowGlyph(v.Tip().Sub(v.Tail())), v.Color)
		if v.Label != nil {
			c, _ := v.LabelCenter()
			g.badge(c, v.Label.Value, v.Color)
		}
	case shape.Text:
		origin, wrap, _ := shape.TextFrame(v)
		l := m.Measure(v.Font, v.Text, wrap)
		if v.Background {
			g.fillRect(geom.Rect{Min: origin, Max: origin.Add(geom.Pt(l.Width, l.Height))}, v.Color.Contrast())
		}
		g.textBlock(l, origin, v.Color)
	case shape.StickyNote:
		w, h := shape.NoteSize(v, m)
		g.fillRect(geom.Rect{Min: v.Pos, Max: v.Pos.Add(geom.Pt(w, h))}, v.Color)
		origin, wrap, _ := shape.TextFrame(v)
		g.textBlock(m.Measure(v.Font, v.Text, wrap), origin, v.Color.Contrast())
	case shape.StepMarker:
		g.badge(v.Center, v.Value, v.Color)
	}
}

func (g *grid) badge(c geom.Point, n int, col shape.Color) {
	label := "(" + strconv.Itoa(n) + ")"
	cc, row := g.cellOf(c)
	g.text(cc-runewidth.StringWidth(label)/2, row, label, col)
}

// list draws menu or panel rows, one row per item height.
func (g *grid) list(box geom.Rect, rows []uiRow) {
	c0, _ := g.cellOf(box.Min)
	c1, _ := g.cellOf(box.Max)
	width := c1 - c0
	for i, r := range rows {
		// Rows follow the canvas item centers so clicks land on them.
		_, row := g.cellOf(geom.Pt(box.Min.X, box.Min.Y+(float64(i)+0.5)*input.MenuItemHeight))
		label := runewidth.Truncate(" "+r.label, width, "…")
		value := runewidth.Truncate(r.value+" ", width-runewidth.StringWidth(label), "")
		line := label + strings.Repeat(" ", max(0, width-runewidth.StringWidth(label)-runewidth.StringWidth(value))) + value
		g.text(c0, row, line, uiForeground)
		for col := c0; col < c0+width; col++ {
			if c := g.at(col, row); c != nil {
				bg := uiBackground.WithAlpha(1)
				c.bg = &bg
				c.reverse = r.focused
				c.faint = r.disabled && !r.focused
			}
		}
	}
}

// Render draws snap into cols by rows cells plus one status row.
func (t *Terminal) Render(snap input.Snapshot, cols, rows int) string {
	if cols < 1 {
		cols = 1
	}
	if rows < 2 {
		rows = 2
	}
	g := t.newGrid(cols, rows-1)

	if bg := snap.Board.Background; !bg.Transparent {
		for row := range g.cells {
			for col := range g.cells[row] {
				g.fill(col, row, bg.Color)
			}
		}
	}
	for _, d := range snap.Shapes {
		g.shape(d.Shape)
	}
	if snap.Preview != nil {
		g.shape(snap.Preview)
	}
	if !snap.Selection.Empty() {
		g.box(snap.Selection, selectionColor, true)
		for _, h := range snap.Handles {
			col, row := g.cellOf(h)
			g.put(col, row, '■', selectionColor)
		}
	}
	if r := snap.RubberBand; r != nil {
		g.box(*r, selectionColor, true)
	}
	if e := snap.Eraser; e != nil {
		col, row := g.cellOf(e.Center)
		g.put(col, row, '◯', uiDisabled)
	}
	if ed := snap.Editing; ed != nil {
		g.shape(ed.Shape)
		col, row := g.cellOf(ed.Caret.Add(geom.Pt(0, ed.CaretHeight/2)))
		if c := g.at(col, row); c != nil {
			c.underline = true
			if c.ch == ' ' {
				fg := shape.ColorOf(ed.Shape)
				c.ch, c.fg = '▏', &fg
			}
		}
	}
	if mu := snap.Menu; mu != nil {
		items := make([]uiRow, len(mu.Items))
		for i, it := range mu.Items {
			items[i] = uiRow{label: it.Label, value: it.Shortcut, disabled: it.Disabled, focused: i == mu.Focus}
		}
		g.list(mu.Bounds(), items)
	}
	if pn := snap.Panel; pn != nil {
		entries := []uiRow{{label: "Properties", disabled: true}}
		for i, e := range pn.Entries {
			entries = append(entries, uiRow{label: e.Property.String(), value: e.Value, disabled: e.Disabled, focused: i == pn.Focus})
		}
		g.list(pn.Bounds(), entries)
	}

	var out strings.Builder
	for _, row := range g.cells {
		writeRow(&out, row)
		out.WriteByte('\n')
	}
	out.WriteString(StatusLine(snap, cols))
	return out.String()
}

func hexOf(c *shape.Color) lipgloss.Color {
	return lipgloss.Color(c.WithAlpha(1).Hex())
}

func styleOf(c cell) lipgloss.Style {
	st := lipgloss.NewStyle()
	if c.fg != nil {
		st = st.Foreground(hexOf(c.fg))
	}
	if c.bg != nil {
		st = st.Background(hexOf(c.bg))
	}
	return st.Reverse(c.reverse).Faint(c.faint).Underline(c.underline)
}

func sameStyle(a, b cell) bool {
	eq := func(x, y *shape.Color) bool {
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	}
	return eq(a.fg, b.fg) && eq(a.bg, b.bg) && a.reverse == b.reverse && a.faint == b.faint && a.underline == b.underline
}

// writeRow renders runs of equally styled cells with one style each.
func writeRow(out *strings.Builder, row []cell) {
	var (
		run strings.Builder
		cur cell
	)
	for _, c := range row {
		if c.cont {
			continue
		}
		if run.Len() > 0 && !sameStyle(cur, c) {
			out.WriteString(styleOf(cur).Render(run.String()))
			run.Reset()
		}
		if run.Len() == 0 {
			cur = c
		}
		run.WriteRune(c.ch)
	}
	if run.Len() > 0 {
		out.WriteString(styleOf(cur).Render(run.String()))
	}
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#eeeeee")).Background(lipgloss.Color("#333333"))
	toastStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#111111")).Background(lipgloss.Color("#f0c674")).Bold(true)
	frozenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#cc3333")).Bold(true)
)

// StatusLine summarizes the tool state, board and page in one row.
func StatusLine(snap input.Snapshot, cols int) string {
	tools := snap.Tools
	swatch := lipgloss.NewStyle().Foreground(hexOf(&tools.Color)).Render("■")
	parts := []string{
		fmt.Sprintf(" %s", tools.Tool),
		fmt.Sprintf("%.0fpx", tools.Thickness),
		fmt.Sprintf("%s %d/%d", snap.Board.Name, snap.BoardIndex+1, snap.BoardCount),
		fmt.Sprintf("page %d/%d", snap.Page+1, snap.PageCount),
	}
	if tools.Tool == input.ToolEraser {
		parts = append(parts, fmt.Sprintf("%s %.0fpx", tools.EraserMode, tools.EraserSize))
	}
	plain := strings.Join(parts, " │ ")

	var tail []string
	if snap.Frozen {
		tail = append(tail, frozenStyle.Render(" FROZEN "))
	}
	if snap.Toast != "" {
		tail = append(tail, toastStyle.Render(" "+snap.Toast+" "))
	}
	right := strings.Join(tail, " ")
	avail := cols - 2 - lipgloss.Width(right)
	if avail < 0 {
		avail = 0
	}
	left := runewidth.Truncate(plain, avail, "…")
	pad := cols - 2 - runewidth.StringWidth(left) - lipgloss.Width(right)
	if pad < 0 {
		pad = 0
	}
	return statusStyle.Render(left+" ") + swatch + statusStyle.Render(strings.Repeat(" ", pad)) + right
}
