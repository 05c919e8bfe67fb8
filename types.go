// Package stackresolver enumerates every installable software stack
// reachable from a set of direct dependencies: every set of packages that
// transitively closes over a chosen set of direct dependencies while
// containing at most one package per type (two packages of the same type,
// e.g. two versions of the same product, conflict and cannot coexist in a
// stack).
//
// The package assumes package and type identifiers are dense small
// unsigned integers in [0, N) — the caller (or a fixed-size allocator
// upstream of it) is responsible for that assignment. See InputTable.
package stackresolver

import "fmt"

// PackageID identifies a concrete installable package. Ids are dense in
// [0, N). The top two values of the range are reserved as stream
// sentinels and must never be used as real ids (see Stop and Delimiter).
type PackageID = uint32

// TypeID identifies the equivalence class of packages that conflict
// pairwise — e.g. different versions of the same product name.
type TypeID = uint32

const (
	// Stop terminates the encoded stream: written exactly once, after the
	// last stack.
	Stop PackageID = 0xFFFFFFFF
	// Delimiter terminates one encoded stack within the stream.
	Delimiter PackageID = 0xFFFFFFFE
	// MaxPackages is the largest N a caller may request, leaving the top
	// two id values free for the sentinels above.
	MaxPackages = Delimiter - 1
)

// Edge is a single (from, to) dependency edge: from depends on to.
type Edge struct {
	From PackageID
	To   PackageID
}

// InputTable is the immutable set of tables derived from the caller: the
// initial roots, the type of every package, and the dependency adjacency
// built once from the caller's edge list. It is shared by reference
// across every StackItem created during a run; it is never copied.
type InputTable struct {
	directDeps []PackageID
	typeOf     []TypeID
	depsOf     [][]PackageID
	n          int
}

// BuildInputTable validates and builds an InputTable from caller-owned
// arrays. edges is a list of (from, to) dependency pairs; typeOf must have
// exactly n entries, one per package. Duplicate edges are tolerated (they
// inflate the search, per the caller contract) but callers should
// deduplicate upstream.
//
// Out-of-range ids anywhere in directDeps, edges, or implied by len(typeOf)
// are a caller-contract violation: BuildInputTable panics rather than
// returning an error, since the condition can only arise from a bug in the
// caller's integer allocation, not from user-controlled data.
func BuildInputTable(directDeps []PackageID, edges []Edge, typeOf []TypeID, n int) *InputTable {
	if n < 0 || n > int(MaxPackages) {
		panic(fmt.Sprintf("stackresolver: invalid package count %d (max %d)", n, MaxPackages))
	}
	if len(typeOf) != n {
		panic(fmt.Sprintf("stackresolver: type_of has %d entries, want %d", len(typeOf), n))
	}
	checkID := func(id PackageID, what string) {
		if int(id) >= n {
			panic(fmt.Sprintf("stackresolver: %s id %d out of range [0, %d)", what, id, n))
		}
	}
	for _, id := range directDeps {
		checkID(id, "direct dependency")
	}

	depsOf := make([][]PackageID, n)
	for _, e := range edges {
		checkID(e.From, "edge.From")
		checkID(e.To, "edge.To")
		depsOf[e.From] = append(depsOf[e.From], e.To)
	}

	dd := make([]PackageID, len(directDeps))
	copy(dd, directDeps)
	to := make([]TypeID, n)
	copy(to, typeOf)

	return &InputTable{directDeps: dd, typeOf: to, depsOf: depsOf, n: n}
}

// N returns the total package count.
func (t *InputTable) N() int { return t.n }

// DirectDeps returns the initial roots.
func (t *InputTable) DirectDeps() []PackageID { return t.directDeps }

// TypeOf returns the type of package p.
func (t *InputTable) TypeOf(p PackageID) TypeID { return t.typeOf[p] }

// DepsOf returns the (possibly empty) list of packages p directly
// requires, in the caller's original edge order.
func (t *InputTable) DepsOf(p PackageID) []PackageID { return t.depsOf[p] }
