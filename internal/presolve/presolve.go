// Package presolve implements a feasibility precheck: before an
// Enumerator pays for a potentially large exhaustive search, ask a SAT
// solver a single question — is there any assignment of packages that
// satisfies the direct dependencies without violating type uniqueness?
//
// "At most one version per product" is encoded as pairwise conflict
// clauses, and dependency requirements as implication clauses, then a
// single SAT solve answers whether any satisfying assignment exists.
// The enumerator in the root package performs a different, exhaustive
// strategy, so the SAT encoding here is used only as a fail-fast gate,
// never to pick which stack is emitted.
package presolve

import (
	"fmt"

	"github.com/justinfx/pigosat"

	"github.com/thoth-station/stackresolver"
)

// Solver is a stackresolver.Presolver backed by pigosat.
type Solver struct {
	// Trace requests pigosat's internal clausal-trace bookkeeping. Left
	// off by default: the precheck only needs a yes/no answer, not a
	// clausal core.
	Trace bool
}

// New returns a ready-to-use Solver.
func New() *Solver { return &Solver{} }

// Feasible builds a CNF encoding of table's type-conflict and
// dependency-implication structure and asks pigosat whether table's
// direct dependencies are jointly satisfiable. It returns an error only
// for a genuine pigosat initialization failure; the caller
// (stackresolver.New) treats any error as "unknown, assume feasible".
func (s *Solver) Feasible(table *stackresolver.InputTable) (bool, error) {
	n := table.N()
	if n == 0 {
		return len(table.DirectDeps()) == 0, nil
	}

	opts := &pigosat.Options{EnableTrace: s.Trace}
	solver, err := pigosat.New(opts)
	if err != nil {
		return false, fmt.Errorf("presolve: failed to initialize pigosat: %w", err)
	}

	lit := func(p stackresolver.PackageID) pigosat.Literal {
		return pigosat.Literal(p) + 1
	}

	var clauses pigosat.Formula

	byType := make(map[stackresolver.TypeID][]pigosat.Literal)
	for p := 0; p < n; p++ {
		id := stackresolver.PackageID(p)
		t := table.TypeOf(id)
		byType[t] = append(byType[t], lit(id))
	}
	for _, lits := range byType {
		clauses = append(clauses, conflictClauses(lits)...)
	}

	for p := 0; p < n; p++ {
		id := stackresolver.PackageID(p)
		deps := table.DepsOf(id)
		if len(deps) == 0 {
			continue
		}
		for _, group := range groupByType(deps, table.TypeOf) {
			clause := make([]pigosat.Literal, 0, len(group)+1)
			clause = append(clause, -lit(id))
			for _, d := range group {
				clause = append(clause, lit(d))
			}
			clauses = append(clauses, clause)
		}
	}

	// A direct dependency requirement is satisfied by picking *one*
	// package per type among the direct deps — same as the enumerator's
	// initial-frontier construction: direct deps sharing a type are
	// alternatives, not a simultaneous requirement. Encoding each
	// type-group as a disjunction clause (rather than asserting every
	// direct dep as a hard assumption) keeps this precheck from declaring
	// a satisfiable input infeasible.
	for _, group := range groupByType(table.DirectDeps(), table.TypeOf) {
		clause := make([]pigosat.Literal, len(group))
		for i, d := range group {
			clause[i] = lit(d)
		}
		clauses = append(clauses, clause)
	}

	solver.Adjust(n)
	solver.AddClauses(clauses)

	status, _ := solver.Solve()
	return status == pigosat.Satisfiable, nil
}

// groupByType partitions deps by type; unlike the root package's
// unexported groupByType, order is irrelevant here since the result only
// feeds a satisfiability question, not a deterministic enumeration.
func groupByType(deps []stackresolver.PackageID, typeOf func(stackresolver.PackageID) stackresolver.TypeID) [][]stackresolver.PackageID {
	groups := make(map[stackresolver.TypeID][]stackresolver.PackageID, len(deps))
	var order []stackresolver.TypeID
	for _, d := range deps {
		t := typeOf(d)
		if _, ok := groups[t]; !ok {
			order = append(order, t)
		}
		groups[t] = append(groups[t], d)
	}
	out := make([][]stackresolver.PackageID, len(order))
	for i, t := range order {
		out[i] = groups[t]
	}
	return out
}

// conflictClauses builds a pairwise negative clause for every 2-item
// combination of lits: at most one of lits may hold.
func conflictClauses(lits []pigosat.Literal) pigosat.Formula {
	count := len(lits)
	if count <= 1 {
		return nil
	}

	clauses := make(pigosat.Formula, 0, count*(count-1)/2)
	for x := 0; x < count-1; x++ {
		for y := x + 1; y < count; y++ {
			clauses = append(clauses, []pigosat.Literal{-lits[x], -lits[y]})
		}
	}
	return clauses
}
