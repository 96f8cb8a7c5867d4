package frame

import (
	"sort"

	"sketchover/internal/shape"
)

// Snapshot is the restorable state of one shape.
type Snapshot struct {
	Shape  shape.Shape
	Locked bool
}

// Action is a reversible frame mutation: Add, Remove, Modify, Reorder or
// Batch.
type Action interface {
	isAction()
}

// Add inserts Shape at z-order Index.
type Add struct {
	Index int
	Shape DrawnShape
}

// Remove deletes Shape, which sat at z-order Index.
type Remove struct {
	Index int
	Shape DrawnShape
}

// Modify replaces the state of shape ID.
type Modify struct {
	ID     ShapeID
	Before Snapshot
	After  Snapshot
}

// Reorder moves shape ID from z-order From to z-order To.
type Reorder struct {
	ID       ShapeID
	From, To int
}

// Batch applies its actions in order and reverts them in reverse order.
type Batch struct {
	Actions []Action
}

func (Add) isAction()     {}
func (Remove) isAction()  {}
func (Modify) isAction()  {}
func (Reorder) isAction() {}
func (Batch) isAction()   {}

// NewBatch wraps actions. A single action is returned as is and an empty
// list yields nil.
func NewBatch(actions ...Action) Action {
	switch len(actions) {
	case 0:
		return nil
	case 1:
		return actions[0]
	}
	return Batch{Actions: actions}
}

// Affected returns the IDs of every shape a touches, in first-seen order.
func Affected(a Action) []ShapeID {
	var ids []ShapeID
	seen := make(map[ShapeID]struct{})
	walk(a, func(a Action) {
		var id ShapeID
		switch v := a.(type) {
		case Add:
			id = v.Shape.ID
		case Remove:
			id = v.Shape.ID
		case Modify:
			id = v.ID
		case Reorder:
			id = v.ID
		default:
			return
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	})
	return ids
}

// Depth returns the batch nesting depth of a. A plain action has depth 0.
func Depth(a Action) int {
	b, ok := a.(Batch)
	if !ok {
		return 0
	}
	max := 0
	for _, sub := range b.Actions {
		if d := Depth(sub); d > max {
			max = d
		}
	}
	return max + 1
}

func walk(a Action, fn func(Action)) {
	if b, ok := a.(Batch); ok {
		for _, sub := range b.Actions {
			walk(sub, fn)
		}
		return
	}
	fn(a)
}

// prune drops every leaf action touching an ID in gone. Batches left empty
// are dropped as well; nil means nothing remains.
func prune(a Action, gone map[ShapeID]struct{}) Action {
	if b, ok := a.(Batch); ok {
		var kept []Action
		for _, sub := range b.Actions {
			if p := prune(sub, gone); p != nil {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return Batch{Actions: kept}
	}
	for _, id := range Affected(a) {
		if _, ok := gone[id]; ok {
			return nil
		}
	}
	return a
}

func sortByAge(ds []DrawnShape) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].CreatedAt != ds[j].CreatedAt {
			return ds[i].CreatedAt < ds[j].CreatedAt
		}
		return ds[i].ID < ds[j].ID
	})
}
