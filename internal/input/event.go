package input

import (
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
)

// Button is a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Event is a normalized input event fed to Machine.Handle.
type Event interface {
	isEvent()
}

// PointerDown is a button press. Pressure is only meaningful with
// HasPressure set.
type PointerDown struct {
	Pos         geom.Point
	Button      Button
	Mods        keymap.Mod
	Pressure    float64
	HasPressure bool
}

// PointerMove reports motion with or without a button held.
type PointerMove struct {
	Pos         geom.Point
	Mods        keymap.Mod
	Pressure    float64
	HasPressure bool
}

type PointerUp struct {
	Pos    geom.Point
	Button Button
	Mods   keymap.Mod
}

// KeyDown carries the key name and, for printable keys, the text it types.
type KeyDown struct {
	Key  string
	Mods keymap.Mod
	Text string
}

type KeyUp struct {
	Key  string
	Mods keymap.Mod
}

// Scroll is a wheel step; positive Delta scrolls up.
type Scroll struct {
	Pos   geom.Point
	Delta float64
	Mods  keymap.Mod
}

// ModifiersChanged reports the held modifiers outside of a key or pointer
// event.
type ModifiersChanged struct {
	Mods keymap.Mod
}

// Resize reports the size of the drawing surface.
type Resize struct {
	Width, Height float64
}

// TextPaste drops text from the system clipboard at the pointer.
type TextPaste struct {
	Text string
}

func (PointerDown) isEvent()      {}
func (PointerMove) isEvent()      {}
func (PointerUp) isEvent()        {}
func (KeyDown) isEvent()          {}
func (KeyUp) isEvent()            {}
func (Scroll) isEvent()           {}
func (ModifiersChanged) isEvent() {}
func (Resize) isEvent()           {}
func (TextPaste) isEvent()        {}

// Effect is a request from the machine to its host. The machine never
// performs I/O itself.
type Effect interface {
	isEffect()
}

// Quit asks the host to exit.
type Quit struct{}

// SaveRequest asks the host to persist the session.
type SaveRequest struct {
	Reason string
}

// CopyText asks the host to place text on the system clipboard.
type CopyText struct {
	Text string
}

// FreezeChanged reports that the frozen-background flag flipped.
type FreezeChanged struct {
	Frozen bool
}

// ReloadConfig asks the host to re-read its configuration.
type ReloadConfig struct{}

// ExportImage asks the host to rasterize the active page.
type ExportImage struct{}

// ToggleHelp asks the host to show or hide its help overlay.
type ToggleHelp struct{}

func (Quit) isEffect()          {}
func (SaveRequest) isEffect()   {}
func (CopyText) isEffect()      {}
func (FreezeChanged) isEffect() {}
func (ReloadConfig) isEffect()  {}
func (ExportImage) isEffect()   {}
func (ToggleHelp) isEffect()    {}
