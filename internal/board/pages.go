package board

import (
	"errors"
	"fmt"

	"sketchover/internal/frame"
)

var (
	ErrLastPage  = errors.New("cannot delete the last page")
	ErrPageIndex = errors.New("page index out of range")
)

// Pages is the ordered list of frames of one board. There is always at
// least one page.
type Pages struct {
	frames []*frame.Frame
	active int
	limit  int
}

// NewPages returns a single empty page.
func NewPages(historyLimit int) *Pages {
	return &Pages{frames: []*frame.Frame{frame.New(historyLimit)}, limit: historyLimit}
}

// RestorePages wraps existing frames. An empty list yields one empty page
// and an out-of-range active index is clamped.
func RestorePages(frames []*frame.Frame, active, historyLimit int) *Pages {
	p := &Pages{frames: append([]*frame.Frame(nil), frames...), limit: historyLimit}
	if len(p.frames) == 0 {
		p.frames = []*frame.Frame{frame.New(historyLimit)}
	}
	p.active = clamp(active, 0, len(p.frames)-1)
	return p
}

func (p *Pages) Len() int                 { return len(p.frames) }
func (p *Pages) ActiveIndex() int         { return p.active }
func (p *Pages) Active() *frame.Frame     { return p.frames[p.active] }
func (p *Pages) Frame(i int) *frame.Frame { return p.frames[i] }

// Frames returns the pages in order.
func (p *Pages) Frames() []*frame.Frame {
	return append([]*frame.Frame(nil), p.frames...)
}

// Switch activates page i.
func (p *Pages) Switch(i int) error {
	if i < 0 || i >= len(p.frames) {
		return fmt.Errorf("switch to page %d of %d: %w", i+1, len(p.frames), ErrPageIndex)
	}
	p.active = i
	return nil
}

// Step moves delta pages forward or back. It does not wrap.
func (p *Pages) Step(delta int) error {
	return p.Switch(p.active + delta)
}

// New appends an empty page and activates it.
func (p *Pages) New() int {
	p.frames = append(p.frames, frame.New(p.limit))
	p.active = len(p.frames) - 1
	return p.active
}

// Duplicate inserts a copy of the active page, without its history, right
// after it and activates the copy.
func (p *Pages) Duplicate() int {
	return p.Insert(p.active+1, p.Active().Clone())
}

// Insert places f at index i and activates it.
func (p *Pages) Insert(i int, f *frame.Frame) int {
	i = clamp(i, 0, len(p.frames))
	p.frames = append(p.frames, nil)
	copy(p.frames[i+1:], p.frames[i:])
	p.frames[i] = f
	p.active = i
	return i
}

// Delete removes the active page. The last remaining page cannot be
// deleted.
func (p *Pages) Delete() error {
	if len(p.frames) == 1 {
		return ErrLastPage
	}
	p.frames = append(p.frames[:p.active], p.frames[p.active+1:]...)
	if p.active >= len(p.frames) {
		p.active = len(p.frames) - 1
	}
	return nil
}

// Move relocates page from to index to, keeping it active if it was.
func (p *Pages) Move(from, to int) error {
	if from < 0 || from >= len(p.frames) || to < 0 || to >= len(p.frames) {
		return fmt.Errorf("move page %d to %d: %w", from+1, to+1, ErrPageIndex)
	}
	activeFrame := p.frames[p.active]
	f := p.frames[from]
	p.frames = append(p.frames[:from], p.frames[from+1:]...)
	p.frames = append(p.frames, nil)
	copy(p.frames[to+1:], p.frames[to:])
	p.frames[to] = f
	for i, fr := range p.frames {
		if fr == activeFrame {
			p.active = i
		}
	}
	return nil
}

// SetHistoryLimit applies a new undo depth to every page.
func (p *Pages) SetHistoryLimit(n int) {
	p.limit = n
	for _, f := range p.frames {
		f.SetHistoryLimit(n)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
