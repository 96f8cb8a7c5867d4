package frame

// PlanToFront returns the reorders that raise ids above every other shape
// while keeping their relative order. Apply the result to perform it. Nil
// means there is nothing to do.
func (f *Frame) PlanToFront(ids []ShapeID) Action {
	return f.plan(ids, true)
}

// PlanToBack is the counterpart of PlanToFront.
func (f *Frame) PlanToBack(ids []ShapeID) Action {
	return f.plan(ids, false)
}

func (f *Frame) plan(ids []ShapeID, front bool) Action {
	order := make([]ShapeID, len(f.shapes))
	for i, d := range f.shapes {
		order[i] = d.ID
	}
	want := make(map[ShapeID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	// Selected IDs in their current z-order.
	var sel []ShapeID
	for _, id := range order {
		if _, ok := want[id]; ok {
			sel = append(sel, id)
		}
	}

	var actions []Action
	place := func(k int) {
		id := sel[k]
		from := indexIn(order, id)
		to := k
		if front {
			to = len(order) - len(sel) + k
		}
		if from == to {
			return
		}
		order = moveIn(order, from, to)
		actions = append(actions, Reorder{ID: id, From: from, To: to})
	}
	// Fill target slots from the far end inward so earlier moves are not
	// displaced by later ones.
	if front {
		for k := len(sel) - 1; k >= 0; k-- {
			place(k)
		}
	} else {
		for k := range sel {
			place(k)
		}
	}
	return NewBatch(actions...)
}

func indexIn(order []ShapeID, id ShapeID) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func moveIn(order []ShapeID, from, to int) []ShapeID {
	id := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order, 0)
	copy(order[to+1:], order[to:])
	order[to] = id
	return order
}
