package stackresolver

import "fmt"

// Presolver is an optional feasibility precheck hook. Feasible reports
// whether any stack can possibly satisfy table's direct dependencies
// under the type-conflict constraint; when it returns false,
// New skips frontier construction entirely and the run ends at the first
// Step with zero stacks emitted. The core package depends only on this
// interface, never on a concrete solver, so the pigosat-backed
// implementation in internal/presolve can live above this package without
// an import cycle.
type Presolver interface {
	Feasible(table *InputTable) (bool, error)
}

// Options configures an Enumerator beyond the required input tables.
type Options struct {
	// Presolver, if set, is consulted once by New. A nil Presolver (the
	// zero value) disables presolve; this never changes which stacks are
	// emitted, only how quickly infeasibility is detected.
	Presolver Presolver
}

// Stats accumulates counters useful for host-side monitoring
// (internal/monitor). They are not part of the original spec's
// correctness surface — purely observability.
type Stats struct {
	PackagesConsidered int
	StacksEmitted      int
	StatesPruned       int
}

// Enumerator is the public façade: construct, Step (produce at most one
// stack), Drain (produce all), Close. It owns the InputTable and the
// frontier, and borrows the caller's output Sink for the lifetime of one
// resolution run.
type Enumerator struct {
	table *InputTable
	front frontier
	enc   *encoder
	done  bool
	Stats Stats
}

// New constructs an Enumerator. sink must be a valid writable destination
// for the duration of the run; the caller retains ownership of it (New
// never closes it). See BuildInputTable for the caller contract on
// directDeps/edges/typeOf/n.
func New(directDeps []PackageID, edges []Edge, typeOf []TypeID, n int, sink Sink, opts Options) (*Enumerator, error) {
	table := BuildInputTable(directDeps, edges, typeOf, n)

	e := &Enumerator{
		table: table,
		enc:   newEncoder(sink),
	}

	if opts.Presolver != nil {
		feasible, err := opts.Presolver.Feasible(table)
		if err != nil {
			// Presolve failure is non-fatal: fall back to running the full
			// expansion with no precheck.
			feasible = true
		}
		if !feasible {
			return e, nil
		}
	}

	e.seedFrontier()
	return e, nil
}

// seedFrontier builds the initial frontier: group direct_deps by type,
// take the cartesian product, and push one StackItem per tuple with an
// empty admitted set and pending set to that tuple. The initial
// configuration is itself expanded via cartesian product, so same-type
// direct deps become separate alternative starting states rather than a
// single combined one.
func (e *Enumerator) seedFrontier() {
	groups := groupByType(e.table.DirectDeps(), e.table.TypeOf)
	tuples := cartesianProduct(groups)
	for _, tuple := range tuples {
		item := newStackItem(e.table)
		item.appendPending(tuple)
		e.front.push(item)
	}
}

// ItemWidth returns the width, in bits, of PackageID/TypeID (always 32).
func (e *Enumerator) ItemWidth() int { return 32 }

// Stop returns the end-of-stream sentinel value.
func (e *Enumerator) Stop() PackageID { return Stop }

// Delimiter returns the end-of-stack sentinel value.
func (e *Enumerator) Delimiter() PackageID { return Delimiter }

// Step advances until at most one stack is emitted or the frontier
// empties. Returns (true, nil) if a stack was emitted, (false, nil) once
// the frontier is exhausted and Stop has been written (idempotent on
// subsequent calls), or (false, err) if a sink write failed — a distinct,
// non-recoverable outcome from the normal end-of-stream case.
func (e *Enumerator) Step() (bool, error) {
	if e.done {
		return false, nil
	}

	for !e.front.empty() {
		top := e.front.items[len(e.front.items)-1]
		if !top.IsFinal() {
			e.front.pop()
			e.Stats.PackagesConsidered++
			children := expandOne(top)
			if len(children) == 0 {
				e.Stats.StatesPruned++
			}
			for _, c := range children {
				e.front.push(c)
			}
			continue
		}

		// top is final: pop and emit.
		e.front.pop()
		if err := e.enc.writeStack(top.Admitted()); err != nil {
			return false, err
		}
		e.Stats.StacksEmitted++
		return true, nil
	}

	e.done = true
	if err := e.enc.writeStop(); err != nil {
		return false, err
	}
	return false, nil
}

// Drain repeatedly calls Step until it returns false, stopping early if
// Step returns an error.
func (e *Enumerator) Drain() error {
	for {
		more, err := e.Step()
		if err != nil {
			return fmt.Errorf("stackresolver: drain: %w", err)
		}
		if !more {
			return nil
		}
	}
}

// FrontierDepth reports the current number of live states — useful for
// host-side monitoring of memory pressure during a long-running drain.
func (e *Enumerator) FrontierDepth() int { return e.front.depth() }

// Close releases the Enumerator's frontier and adjacency map. It does not
// close the sink — the caller owns the sink's lifetime.
func (e *Enumerator) Close() {
	e.front.items = nil
	e.table = nil
}
