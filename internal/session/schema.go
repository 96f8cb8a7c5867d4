package session

import (
	"encoding/json"
	"fmt"

	"sketchover/internal/board"
	"sketchover/internal/frame"
	"sketchover/internal/input"
	"sketchover/internal/shape"
)

type fileDoc struct {
	Version     int        `json:"version"`
	ID          string     `json:"id"`
	SavedAt     int64      `json:"saved_at"`
	ActiveBoard string     `json:"active_board"`
	Boards      []boardDoc `json:"boards"`
	Tools       *toolsDoc  `json:"tools,omitempty"`
}

type boardDoc struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Transparent   bool         `json:"transparent"`
	Background    shape.Color  `json:"background"`
	PenColor      *shape.Color `json:"pen_color,omitempty"`
	AutoAdjustPen bool         `json:"auto_adjust_pen,omitempty"`
	Pinned        bool         `json:"pinned,omitempty"`
	ActivePage    int          `json:"active_page"`
	Pages         []pageDoc    `json:"pages"`
}

type pageDoc struct {
	Shapes []shapeDoc  `json:"shapes"`
	Undo   []actionDoc `json:"undo,omitempty"`
	Redo   []actionDoc `json:"redo,omitempty"`
}

type shapeDoc struct {
	ID        frame.ShapeID   `json:"id"`
	CreatedAt int64           `json:"created_at"`
	Locked    bool            `json:"locked,omitempty"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
}

type snapshotDoc struct {
	Locked bool            `json:"locked,omitempty"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data"`
}

type actionDoc struct {
	Op      string        `json:"op"`
	Index   int           `json:"index,omitempty"`
	Shape   *shapeDoc     `json:"shape,omitempty"`
	ID      frame.ShapeID `json:"id,omitempty"`
	Before  *snapshotDoc  `json:"before,omitempty"`
	After   *snapshotDoc  `json:"after,omitempty"`
	From    int           `json:"from,omitempty"`
	To      int           `json:"to,omitempty"`
	Actions []actionDoc   `json:"actions,omitempty"`
}

type toolsDoc struct {
	Tool           string               `json:"tool"`
	Color          shape.Color          `json:"color"`
	Thickness      float64              `json:"thickness"`
	Font           shape.FontDescriptor `json:"font"`
	Fill           bool                 `json:"fill"`
	TextBackground bool                 `json:"text_background"`
	NoteColor      shape.Color          `json:"note_color"`
	ArrowLength    float64              `json:"arrow_length"`
	ArrowAngle     float64              `json:"arrow_angle"`
	ArrowHeadAtEnd bool                 `json:"arrow_head_at_end"`
	ArrowLabels    bool                 `json:"arrow_labels"`
	NextNumber     int                  `json:"next_number"`
	MarkerOpacity  float64              `json:"marker_opacity"`
	EraserSize     float64              `json:"eraser_size"`
	EraserMode     string               `json:"eraser_mode"`
	Smoothing      bool                 `json:"smoothing"`
	PreviousColor  *shape.Color         `json:"board_previous_color,omitempty"`
}

func encodeShape(s shape.Shape) (string, json.RawMessage, error) {
	if s == nil {
		return "", nil, fmt.Errorf("nil shape")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", nil, err
	}
	return s.Kind().String(), data, nil
}

func decodeShape(kind string, data json.RawMessage) (shape.Shape, error) {
	k, err := shape.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	var s shape.Shape
	switch k {
	case shape.KindStroke:
		s, err = unmarshalAs[shape.Stroke](data)
	case shape.KindMarker:
		s, err = unmarshalAs[shape.Marker](data)
	case shape.KindLine:
		s, err = unmarshalAs[shape.Line](data)
	case shape.KindRect:
		s, err = unmarshalAs[shape.Rect](data)
	case shape.KindEllipse:
		s, err = unmarshalAs[shape.Ellipse](data)
	case shape.KindArrow:
		s, err = unmarshalAs[shape.Arrow](data)
	case shape.KindText:
		s, err = unmarshalAs[shape.Text](data)
	case shape.KindStickyNote:
		s, err = unmarshalAs[shape.StickyNote](data)
	case shape.KindStepMarker:
		s, err = unmarshalAs[shape.StepMarker](data)
	default:
		return nil, fmt.Errorf("unsupported shape kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if st, ok := s.(shape.Stroke); ok && st.Pressure != nil && len(st.Pressure) != len(st.Points) {
		return nil, fmt.Errorf("stroke: %d pressure samples for %d points", len(st.Pressure), len(st.Points))
	}
	return s, nil
}

func unmarshalAs[T shape.Shape](data json.RawMessage) (shape.Shape, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func toShapeDoc(d frame.DrawnShape) (shapeDoc, error) {
	kind, data, err := encodeShape(d.Shape)
	if err != nil {
		return shapeDoc{}, fmt.Errorf("shape %d: %w", d.ID, err)
	}
	return shapeDoc{ID: d.ID, CreatedAt: d.CreatedAt, Locked: d.Locked, Kind: kind, Data: data}, nil
}

func fromShapeDoc(doc shapeDoc) (frame.DrawnShape, error) {
	if doc.ID == 0 {
		return frame.DrawnShape{}, fmt.Errorf("shape without id")
	}
	s, err := decodeShape(doc.Kind, doc.Data)
	if err != nil {
		return frame.DrawnShape{}, fmt.Errorf("shape %d: %w", doc.ID, err)
	}
	return frame.DrawnShape{ID: doc.ID, Shape: s, CreatedAt: doc.CreatedAt, Locked: doc.Locked}, nil
}

func toSnapshotDoc(s frame.Snapshot) (*snapshotDoc, error) {
	kind, data, err := encodeShape(s.Shape)
	if err != nil {
		return nil, err
	}
	return &snapshotDoc{Locked: s.Locked, Kind: kind, Data: data}, nil
}

func fromSnapshotDoc(doc *snapshotDoc) (frame.Snapshot, error) {
	if doc == nil {
		return frame.Snapshot{}, fmt.Errorf("missing snapshot")
	}
	s, err := decodeShape(doc.Kind, doc.Data)
	if err != nil {
		return frame.Snapshot{}, err
	}
	return frame.Snapshot{Shape: s, Locked: doc.Locked}, nil
}

func toActionDoc(a frame.Action) (actionDoc, error) {
	switch v := a.(type) {
	case frame.Add:
		sd, err := toShapeDoc(v.Shape)
		return actionDoc{Op: "add", Index: v.Index, Shape: &sd}, err
	case frame.Remove:
		sd, err := toShapeDoc(v.Shape)
		return actionDoc{Op: "remove", Index: v.Index, Shape: &sd}, err
	case frame.Modify:
		before, err := toSnapshotDoc(v.Before)
		if err != nil {
			return actionDoc{}, err
		}
		after, err := toSnapshotDoc(v.After)
		return actionDoc{Op: "modify", ID: v.ID, Before: before, After: after}, err
	case frame.Reorder:
		return actionDoc{Op: "reorder", ID: v.ID, From: v.From, To: v.To}, nil
	case frame.Batch:
		doc := actionDoc{Op: "batch"}
		for _, sub := range v.Actions {
			sd, err := toActionDoc(sub)
			if err != nil {
				return actionDoc{}, err
			}
			doc.Actions = append(doc.Actions, sd)
		}
		return doc, nil
	}
	return actionDoc{}, fmt.Errorf("unknown action %T", a)
}

func fromActionDoc(doc actionDoc) (frame.Action, error) {
	switch doc.Op {
	case "add", "remove":
		if doc.Shape == nil {
			return nil, fmt.Errorf("%s without shape", doc.Op)
		}
		d, err := fromShapeDoc(*doc.Shape)
		if err != nil {
			return nil, err
		}
		if doc.Op == "add" {
			return frame.Add{Index: doc.Index, Shape: d}, nil
		}
		return frame.Remove{Index: doc.Index, Shape: d}, nil
	case "modify":
		before, err := fromSnapshotDoc(doc.Before)
		if err != nil {
			return nil, fmt.Errorf("modify %d: %w", doc.ID, err)
		}
		after, err := fromSnapshotDoc(doc.After)
		if err != nil {
			return nil, fmt.Errorf("modify %d: %w", doc.ID, err)
		}
		return frame.Modify{ID: doc.ID, Before: before, After: after}, nil
	case "reorder":
		return frame.Reorder{ID: doc.ID, From: doc.From, To: doc.To}, nil
	case "batch":
		var b frame.Batch
		for _, sub := range doc.Actions {
			a, err := fromActionDoc(sub)
			if err != nil {
				return nil, err
			}
			b.Actions = append(b.Actions, a)
		}
		if len(b.Actions) == 0 {
			return nil, fmt.Errorf("empty batch")
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown action %q", doc.Op)
}

func toToolsDoc(t input.ToolState) *toolsDoc {
	return &toolsDoc{
		Tool:           t.Tool.String(),
		Color:          t.Color,
		Thickness:      t.Thickness,
		Font:           t.Font,
		Fill:           t.Fill,
		TextBackground: t.TextBackground,
		NoteColor:      t.NoteColor,
		ArrowLength:    t.ArrowLength,
		ArrowAngle:     t.ArrowAngle,
		ArrowHeadAtEnd: t.ArrowHeadAtEnd,
		ArrowLabels:    t.ArrowLabels,
		NextNumber:     t.NextNumber,
		MarkerOpacity:  t.MarkerOpacity,
		EraserSize:     t.EraserSize,
		EraserMode:     t.EraserMode.String(),
		Smoothing:      t.Smoothing,
		PreviousColor:  t.BoardPreviousColor,
	}
}

// applyTools overlays the persisted tool state on base. Unknown tool or
// eraser names keep base's values.
func (doc *toolsDoc) applyTools(base input.ToolState) input.ToolState {
	t := base
	if tool, err := input.ParseTool(doc.Tool); err == nil {
		t.Tool = tool
	}
	if mode, err := input.ParseEraserMode(doc.EraserMode); err == nil {
		t.EraserMode = mode
	}
	t.Color = doc.Color
	t.Thickness = doc.Thickness
	if doc.Font.Size > 0 {
		t.Font = doc.Font
	}
	t.Fill = doc.Fill
	t.TextBackground = doc.TextBackground
	t.NoteColor = doc.NoteColor
	if doc.ArrowLength > 0 {
		t.ArrowLength = doc.ArrowLength
	}
	if doc.ArrowAngle > 0 {
		t.ArrowAngle = doc.ArrowAngle
	}
	t.ArrowHeadAtEnd = doc.ArrowHeadAtEnd
	t.ArrowLabels = doc.ArrowLabels
	if doc.NextNumber > 0 {
		t.NextNumber = doc.NextNumber
	}
	t.MarkerOpacity = doc.MarkerOpacity
	t.EraserSize = doc.EraserSize
	t.Smoothing = doc.Smoothing
	t.BoardPreviousColor = doc.PreviousColor
	t.Normalize()
	return t
}

func specOf(doc boardDoc) board.Spec {
	bg := board.TransparentBackground()
	if !doc.Transparent {
		bg = board.Solid(doc.Background)
	}
	return board.Spec{
		ID:            doc.ID,
		Name:          doc.Name,
		Background:    bg,
		PenColor:      doc.PenColor,
		AutoAdjustPen: doc.AutoAdjustPen,
		Persist:       true,
		Pinned:        doc.Pinned,
	}
}
