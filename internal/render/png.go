package render

import (
	"errors"
	"image"
	"math"
	"strconv"

	"github.com/fogleman/gg"

	"sketchover/internal/geom"
	"sketchover/internal/input"
	"sketchover/internal/shape"
)

// ErrNothingToExport is returned when a snapshot has no size and no
// shapes to take one from.
var ErrNothingToExport = errors.New("nothing to export")

var (
	selectionColor = shape.RGB(0.2, 0.55, 1)
	uiBackground   = shape.Color{R: 0.12, G: 0.12, B: 0.14, A: 0.94}
	uiForeground   = shape.RGB(0.93, 0.93, 0.93)
	uiDisabled     = shape.RGB(0.5, 0.5, 0.5)
)

// ImageOptions controls Rasterize.
type ImageOptions struct {
	// Width and Height default to the snapshot viewport, or to the bounds
	// of the shapes when the viewport is empty.
	Width, Height int
	// Padding is added around shape bounds when sizing from content.
	Padding float64
	// UI also draws the selection, eraser cursor, menus and toast.
	UI bool
}

// Rasterize draws snap to an RGBA image.
func Rasterize(snap input.Snapshot, fonts *Fonts, opts ImageOptions) (image.Image, error) {
	dc, err := newContext(snap, fonts, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// SavePNG rasterizes snap and writes it to path.
func SavePNG(path string, snap input.Snapshot, fonts *Fonts, opts ImageOptions) error {
	dc, err := newContext(snap, fonts, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

func newContext(snap input.Snapshot, fonts *Fonts, opts ImageOptions) (*gg.Context, error) {
	w, h := opts.Width, opts.Height
	var origin geom.Point
	if w <= 0 || h <= 0 {
		w, h = int(snap.Viewport.X), int(snap.Viewport.Y)
	}
	if w <= 0 || h <= 0 {
		box, ok := contentBounds(snap, fonts)
		if !ok {
			return nil, ErrNothingToExport
		}
		box = box.Inset(opts.Padding)
		origin = box.Min
		w, h = int(math.Ceil(box.Dx())), int(math.Ceil(box.Dy()))
	}

	dc := gg.NewContext(w, h)
	bg := snap.Board.Background
	if !bg.Transparent {
		setColor(dc, bg.Color)
		dc.Clear()
	}
	dc.Translate(-origin.X, -origin.Y)

	p := painter{dc: dc, fonts: fonts}
	for _, d := range snap.Shapes {
		p.shape(d.Shape)
	}
	if snap.Preview != nil {
		p.shape(snap.Preview)
	}
	if snap.Editing != nil {
		p.shape(snap.Editing.Shape)
	}
	if opts.UI {
		p.ui(snap)
	}
	return dc, nil
}

func contentBounds(snap input.Snapshot, m shape.TextMeasurer) (geom.Rect, bool) {
	var (
		box geom.Rect
		ok  bool
	)
	for _, d := range snap.Shapes {
		b := shape.Bounds(d.Shape, m)
		if !ok {
			box, ok = b, true
			continue
		}
		box = box.Union(b)
	}
	return box, ok && !box.Empty()
}

func setColor(dc *gg.Context, c shape.Color) {
	dc.SetRGBA(c.R, c.G, c.B, c.A)
}

type painter struct {
	dc    *gg.Context
	fonts *Fonts
}

func (p painter) shape(s shape.Shape) {
	dc := p.dc
	dc.Push()
	defer dc.Pop()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	switch v := s.(type) {
	case shape.Stroke:
		setColor(dc, v.Color)
		if len(v.Pressure) == len(v.Points) && len(v.Points) > 1 {
			// Width varies per segment with the average pressure of its ends.
			for i := 1; i < len(v.Points); i++ {
				pr := (v.Pressure[i-1] + v.Pressure[i]) / 2
				dc.SetLineWidth(v.Thickness * (0.35 + 0.65*pr))
				dc.DrawLine(v.Points[i-1].X, v.Points[i-1].Y, v.Points[i].X, v.Points[i].Y)
				dc.Stroke()
			}
			return
		}
		p.polyline(v.Points, v.Thickness)
	case shape.Marker:
		setColor(dc, v.Color.WithAlpha(v.Color.A*v.Opacity))
		p.polyline(v.Points, v.Thickness)
	case shape.Line:
		setColor(dc, v.Color)
		dc.SetLineWidth(v.Thickness)
		dc.DrawLine(v.From.X, v.From.Y, v.To.X, v.To.Y)
		dc.Stroke()
	case shape.Rect:
		setColor(dc, v.Color)
		dc.DrawRectangle(v.Min.X, v.Min.Y, v.Max.X-v.Min.X, v.Max.Y-v.Min.Y)
		p.fillOrStroke(v.Fill, v.Thickness)
	case shape.Ellipse:
		setColor(dc, v.Color)
		dc.DrawEllipse(v.Center.X, v.Center.Y, v.RX, v.RY)
		p.fillOrStroke(v.Fill, v.Thickness)
	case shape.Arrow:
		p.arrow(v)
	case shape.Text:
		origin, wrap, _ := shape.TextFrame(v)
		l := p.fonts.Measure(v.Font, v.Text, wrap)
		if v.Background {
			setColor(dc, v.Color.Contrast().WithAlpha(0.75))
			dc.DrawRoundedRectangle(origin.X-4, origin.Y-2, l.Width+8, l.Height+4, 4)
			dc.Fill()
		}
		p.text(l, v.Font, origin, v.Color)
	case shape.StickyNote:
		w, h := shape.NoteSize(v, p.fonts)
		setColor(dc, shape.Color{A: 0.25})
		dc.DrawRoundedRectangle(v.Pos.X+3, v.Pos.Y+4, w, h, 6)
		dc.Fill()
		setColor(dc, v.Color)
		dc.DrawRoundedRectangle(v.Pos.X, v.Pos.Y, w, h, 6)
		dc.Fill()
		origin, wrap, _ := shape.TextFrame(v)
		p.text(p.fonts.Measure(v.Font, v.Text, wrap), v.Font, origin, v.Color.Contrast())
	case shape.StepMarker:
		r := v.Radius()
		p.badge(v.Center, r, v.Value, v.Color)
	}
}

func (p painter) polyline(pts []geom.Point, width float64) {
	dc := p.dc
	if len(pts) == 1 {
		dc.DrawCircle(pts[0].X, pts[0].Y, width/2)
		dc.Fill()
		return
	}
	dc.SetLineWidth(width)
	for i, pt := range pts {
		if i == 0 {
			dc.MoveTo(pt.X, pt.Y)
			continue
		}
		dc.LineTo(pt.X, pt.Y)
	}
	dc.Stroke()
}

func (p painter) fillOrStroke(fill bool, width float64) {
	if fill {
		p.dc.Fill()
		return
	}
	p.dc.SetLineWidth(width)
	p.dc.Stroke()
}

func (p painter) arrow(a shape.Arrow) {
	dc := p.dc
	setColor(dc, a.Color)
	dc.SetLineWidth(a.Thickness)
	dc.DrawLine(a.From.X, a.From.Y, a.To.X, a.To.Y)
	dc.Stroke()

	tip := a.Tip()
	w1, w2 := a.Head()
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(w1.X, w1.Y)
	dc.LineTo(w2.X, w2.Y)
	dc.ClosePath()
	dc.Fill()

	if a.Label != nil {
		c, r := a.LabelCenter()
		p.badge(c, r, a.Label.Value, a.Color)
	}
}

// badge draws a filled circle with a centered number.
func (p painter) badge(c geom.Point, r float64, n int, col shape.Color) {
	dc := p.dc
	setColor(dc, col)
	dc.DrawCircle(c.X, c.Y, r)
	dc.Fill()
	dc.SetFontFace(p.fonts.Face(shape.FontDescriptor{Size: r, Bold: true}))
	setColor(dc, col.Contrast())
	dc.DrawStringAnchored(strconv.Itoa(n), c.X, c.Y, 0.5, 0.35)
}

func (p painter) text(l shape.TextLayout, fd shape.FontDescriptor, origin geom.Point, col shape.Color) {
	dc := p.dc
	face := p.fonts.Face(fd)
	dc.SetFontFace(face)
	setColor(dc, col)
	ascent := float64(face.Metrics().Ascent) / 64
	for i, line := range l.Lines {
		dc.DrawString(line, origin.X, origin.Y+ascent+float64(i)*l.LineHeight)
	}
}

func (p painter) ui(snap input.Snapshot) {
	dc := p.dc
	if !snap.Selection.Empty() || len(snap.Handles) > 0 {
		box := snap.Selection
		setColor(dc, selectionColor)
		dc.SetLineWidth(1)
		dc.SetDash(6, 4)
		dc.DrawRectangle(box.Min.X, box.Min.Y, box.Dx(), box.Dy())
		dc.Stroke()
		dc.SetDash()
		for _, h := range snap.Handles {
			dc.DrawRectangle(h.X-3, h.Y-3, 6, 6)
			dc.Fill()
		}
	}
	if r := snap.RubberBand; r != nil {
		setColor(dc, selectionColor.WithAlpha(0.15))
		dc.DrawRectangle(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		dc.Fill()
		setColor(dc, selectionColor)
		dc.SetLineWidth(1)
		dc.DrawRectangle(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		dc.Stroke()
	}
	if e := snap.Eraser; e != nil {
		setColor(dc, uiDisabled)
		dc.SetLineWidth(1)
		dc.DrawCircle(e.Center.X, e.Center.Y, e.Radius)
		dc.Stroke()
	}
	if ed := snap.Editing; ed != nil {
		setColor(dc, shape.ColorOf(ed.Shape))
		if n, ok := ed.Shape.(shape.StickyNote); ok {
			setColor(dc, n.Color.Contrast())
		}
		dc.SetLineWidth(2)
		dc.DrawLine(ed.Caret.X, ed.Caret.Y, ed.Caret.X, ed.Caret.Y+ed.CaretHeight)
		dc.Stroke()
	}
	if mu := snap.Menu; mu != nil {
		rows := make([]uiRow, len(mu.Items))
		for i, it := range mu.Items {
			rows[i] = uiRow{label: it.Label, value: it.Shortcut, disabled: it.Disabled, focused: i == mu.Focus}
		}
		p.list(mu.Bounds(), rows)
	}
	if pn := snap.Panel; pn != nil {
		rows := []uiRow{{label: "Properties", disabled: true}}
		for i, e := range pn.Entries {
			rows = append(rows, uiRow{label: e.Property.String(), value: e.Value, disabled: e.Disabled, focused: i == pn.Focus})
		}
		p.list(pn.Bounds(), rows)
	}
	if snap.Toast != "" {
		p.toast(snap.Toast, snap.Viewport)
	}
}

type uiRow struct {
	label, value      string
	disabled, focused bool
}

func (p painter) list(box geom.Rect, rows []uiRow) {
	dc := p.dc
	setColor(dc, uiBackground)
	dc.DrawRoundedRectangle(box.Min.X, box.Min.Y, box.Dx(), box.Dy(), 4)
	dc.Fill()
	face := p.fonts.Face(shape.FontDescriptor{Family: "sans", Size: 13})
	dc.SetFontFace(face)
	for i, r := range rows {
		y := box.Min.Y + float64(i)*input.MenuItemHeight
		if r.focused {
			setColor(dc, selectionColor)
			dc.DrawRectangle(box.Min.X, y, box.Dx(), input.MenuItemHeight)
			dc.Fill()
		}
		col := uiForeground
		if r.disabled && !r.focused {
			col = uiDisabled
		}
		setColor(dc, col)
		mid := y + input.MenuItemHeight/2
		dc.DrawStringAnchored(r.label, box.Min.X+10, mid, 0, 0.35)
		if r.value != "" {
			dc.DrawStringAnchored(r.value, box.Max.X-10, mid, 1, 0.35)
		}
	}
}

func (p painter) toast(msg string, viewport geom.Point) {
	dc := p.dc
	face := p.fonts.Face(shape.FontDescriptor{Family: "sans", Size: 15})
	dc.SetFontFace(face)
	w, _ := dc.MeasureString(msg)
	cx := float64(dc.Width()) / 2
	y := float64(dc.Height()) - 48
	if viewport.X > 0 {
		cx = viewport.X / 2
		y = viewport.Y - 48
	}
	setColor(dc, uiBackground)
	dc.DrawRoundedRectangle(cx-w/2-12, y-16, w+24, 32, 8)
	dc.Fill()
	setColor(dc, uiForeground)
	dc.DrawStringAnchored(msg, cx, y, 0.5, 0.35)
}
