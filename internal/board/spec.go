package board

import "sketchover/internal/shape"

// OverlayID is the ID of the transparent board that is always present.
const OverlayID = "overlay"

// Background is either transparent or a solid color.
type Background struct {
	Transparent bool
	Color       shape.Color
}

// TransparentBackground returns the overlay background.
func TransparentBackground() Background {
	return Background{Transparent: true}
}

// Solid returns an opaque background of c.
func Solid(c shape.Color) Background {
	return Background{Color: c}
}

// Spec describes a board: its identity, background and pen defaults.
type Spec struct {
	ID         string
	Name       string
	Background Background
	// PenColor, when set, replaces the pen color on entering the board.
	PenColor *shape.Color
	// AutoAdjustPen picks a pen color that contrasts with a solid
	// background when PenColor is unset.
	AutoAdjustPen bool
	Persist       bool
	Pinned        bool
}

// EffectivePenColor returns the pen color to apply when the board becomes
// active, if any.
func (s Spec) EffectivePenColor() (shape.Color, bool) {
	if s.PenColor != nil {
		return *s.PenColor, true
	}
	if s.AutoAdjustPen && !s.Background.Transparent {
		return s.Background.Color.Contrast(), true
	}
	return shape.Color{}, false
}

// AdjustsPen reports whether entering the board changes the pen color.
func (s Spec) AdjustsPen() bool {
	_, ok := s.EffectivePenColor()
	return ok
}

// DefaultSpecs returns the overlay plus the whiteboard and blackboard.
func DefaultSpecs() []Spec {
	return []Spec{
		{ID: OverlayID, Name: "Overlay", Background: TransparentBackground(), Persist: true, Pinned: true},
		{ID: "whiteboard", Name: "Whiteboard", Background: Solid(shape.RGB(0.992, 0.992, 0.992)), AutoAdjustPen: true, Persist: true},
		{ID: "blackboard", Name: "Blackboard", Background: Solid(shape.RGB(0.067, 0.067, 0.067)), AutoAdjustPen: true, Persist: true},
	}
}
