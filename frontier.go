package stackresolver

// frontier is a LIFO of StackItems driving depth-first enumeration. LIFO
// gives depth-first ordering and bounds memory — a FIFO frontier would
// blow up on wide inputs.
type frontier struct {
	items []*StackItem
}

func (f *frontier) push(item *StackItem) {
	f.items = append(f.items, item)
}

func (f *frontier) pop() *StackItem {
	last := len(f.items) - 1
	item := f.items[last]
	f.items[last] = nil
	f.items = f.items[:last]
	return item
}

func (f *frontier) empty() bool { return len(f.items) == 0 }

func (f *frontier) depth() int { return len(f.items) }
