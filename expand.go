package stackresolver

// expandOne produces the child states of state:
//
//  1. If pending is empty the state is final; it is returned unchanged.
//  2. Otherwise the next pending package p is popped.
//  3. If p is already admitted, it is a no-op re-visit (handles diamonds
//     and cycles for free): the state is returned unchanged, still
//     possibly non-final.
//  4. If p's type is already used, the state cannot lead to a valid stack
//     and is pruned (no children).
//  5. Otherwise p is admitted, its own dependencies are grouped by type,
//     and the cartesian product across those groups gives every
//     alternative way to satisfy p at the type level: one child per
//     tuple, appending the tuple to that child's pending queue.
//
// The last child reuses state in place rather than being cloned — the
// caller must treat state as consumed (either returned in the result
// slice or dead) once expandOne returns.
func expandOne(state *StackItem) []*StackItem {
	if state.IsFinal() {
		return []*StackItem{state}
	}

	p := state.popPending()
	t := state.table.TypeOf(p)

	if state.isAdmitted(p) {
		return []*StackItem{state}
	}
	if state.hasType(t) {
		return nil
	}

	state.admit(p, t)

	deps := state.table.DepsOf(p)
	if len(deps) == 0 {
		return []*StackItem{state}
	}

	groups := groupByType(deps, state.table.TypeOf)
	tuples := cartesianProduct(groups)
	if len(tuples) == 0 {
		return []*StackItem{state}
	}

	children := make([]*StackItem, len(tuples))
	for i, tuple := range tuples {
		var child *StackItem
		if i == len(tuples)-1 {
			child = state
		} else {
			child = state.clone()
		}
		child.appendPending(tuple)
		children[i] = child
	}
	return children
}
