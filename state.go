package stackresolver

// StackItem is one partially-expanded candidate stack: the packages
// already admitted, the types those packages cover, and the queue of
// packages still waiting to be processed.
//
// admitted/usedTypes are bitsets for O(1) admit/has_type checks and cheap
// cloning; order records admission order so the stream encoder can emit
// a stack's membership deterministically without depending on any
// map/set iteration order.
type StackItem struct {
	table     *InputTable
	admitted  bitset
	usedTypes bitset
	order     []PackageID
	pending   []PackageID
}

// newStackItem creates an empty state sharing table's adjacency map.
func newStackItem(table *InputTable) *StackItem {
	return &StackItem{
		table:     table,
		admitted:  newBitset(table.N()),
		usedTypes: newBitset(table.N()),
	}
}

// CountPending returns the number of packages still queued for processing.
func (s *StackItem) CountPending() int { return len(s.pending) }

// IsFinal reports whether the state has nothing left to process — its
// admitted set is a complete stack ready to emit.
func (s *StackItem) IsFinal() bool { return len(s.pending) == 0 }

// popPending removes and returns the back of pending (LIFO).
func (s *StackItem) popPending() PackageID {
	if len(s.pending) == 0 {
		panic("stackresolver: pop_pending on empty state")
	}
	last := len(s.pending) - 1
	p := s.pending[last]
	s.pending = s.pending[:last]
	return p
}

// hasType reports whether t is already covered by an admitted package.
func (s *StackItem) hasType(t TypeID) bool { return s.usedTypes.has(t) }

// isAdmitted reports whether p has already been admitted to this state.
func (s *StackItem) isAdmitted(p PackageID) bool { return s.admitted.has(p) }

// admit commits p (of type t) to the admitted set.
func (s *StackItem) admit(p PackageID, t TypeID) {
	s.admitted.set(p)
	s.usedTypes.set(t)
	s.order = append(s.order, p)
}

// appendPending appends ids to the back of the pending queue.
func (s *StackItem) appendPending(ids []PackageID) {
	s.pending = append(s.pending, ids...)
}

// Admitted returns the stack's membership in admission order.
func (s *StackItem) Admitted() []PackageID { return s.order }

// clone returns a deep copy of admitted, usedTypes, and pending. table is
// shared by reference, never copied.
func (s *StackItem) clone() *StackItem {
	order := make([]PackageID, len(s.order))
	copy(order, s.order)
	pending := make([]PackageID, len(s.pending))
	copy(pending, s.pending)
	return &StackItem{
		table:     s.table,
		admitted:  s.admitted.clone(),
		usedTypes: s.usedTypes.clone(),
		order:     order,
		pending:   pending,
	}
}
