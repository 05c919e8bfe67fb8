// Package catalog loads a named package index from JSON or TOML and
// compiles it into the dense integer InputTable the core stackresolver
// package requires. It maps package names to dense PackageId/TypeId
// pairs for the enumerator, and never forgets the mapping — callers need
// it to translate an emitted stack's integer ids back into names.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/thoth-station/stackresolver"
)

// Package names one product version, e.g. {Product: "libfoo", Version: "2.1"}.
type Package struct {
	Product string `json:"product" toml:"product"`
	Version string `json:"version" toml:"version"`
}

// Name returns the canonical "<product>-<version>" package name.
func (p Package) Name() string {
	return fmt.Sprintf("%s-%s", p.Product, p.Version)
}

// Dependency lists one package and the version sets that satisfy each
// of its requirements. Requires is a list of alternative groups: every
// inner slice is one type-group, so each inner slice must share a
// Product.
type Dependency struct {
	Target   Package     `json:"package" toml:"package"`
	Requires [][]Package `json:"requires" toml:"requires"`
}

// Index is the full catalog of known packages and their dependencies,
// serialized for the CLI boundary.
type Index struct {
	Depends []Dependency `json:"depends" toml:"depends"`
}

// Requirements is the set of direct dependencies requested for one
// resolution run.
type Requirements struct {
	Requires []Package `json:"requires" toml:"requires"`
}

// DecodeIndexJSON reads an Index from JSON.
func DecodeIndexJSON(r io.Reader) (Index, error) {
	var idx Index
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return Index{}, fmt.Errorf("catalog: decode index json: %w", err)
	}
	return idx, nil
}

// DecodeIndexTOML reads an Index from TOML.
func DecodeIndexTOML(r io.Reader) (Index, error) {
	var idx Index
	if _, err := toml.NewDecoder(r).Decode(&idx); err != nil {
		return Index{}, fmt.Errorf("catalog: decode index toml: %w", err)
	}
	return idx, nil
}

// DecodeRequirementsJSON reads Requirements from JSON.
func DecodeRequirementsJSON(r io.Reader) (Requirements, error) {
	var reqs Requirements
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return Requirements{}, fmt.Errorf("catalog: decode requirements json: %w", err)
	}
	return reqs, nil
}

// DecodeRequirementsTOML reads Requirements from TOML.
func DecodeRequirementsTOML(r io.Reader) (Requirements, error) {
	var reqs Requirements
	if _, err := toml.NewDecoder(r).Decode(&reqs); err != nil {
		return Requirements{}, fmt.Errorf("catalog: decode requirements toml: %w", err)
	}
	return reqs, nil
}

// Catalog is the compiled, bidirectional name<->id mapping produced by
// Compile. It outlives the resulting InputTable so a host can translate
// an emitted stack's PackageIds back into names for display.
type Catalog struct {
	names     []string
	productID map[string]stackresolver.TypeID
	idOf      map[string]stackresolver.PackageID
}

// Name returns the package name for id, or "" if id is out of range.
func (c *Catalog) Name(id stackresolver.PackageID) string {
	if int(id) >= len(c.names) {
		return ""
	}
	return c.names[id]
}

// ID returns the dense id assigned to a package name, if known.
func (c *Catalog) ID(name string) (stackresolver.PackageID, bool) {
	id, ok := c.idOf[name]
	return id, ok
}

// NumProducts reports the number of distinct products (types) seen.
func (c *Catalog) NumProducts() int {
	return len(c.productID)
}

// Compile assigns dense ids to every package referenced anywhere in idx
// (as a target or as a requirement candidate) and every package named in
// reqs, builds the dependency edge list, and returns a ready-to-use
// InputTable alongside the Catalog that can translate ids back to names
// and the direct-dependency id list for the run.
func Compile(idx Index, reqs Requirements) (*stackresolver.InputTable, []stackresolver.PackageID, *Catalog, error) {
	c := &Catalog{
		productID: make(map[string]stackresolver.TypeID),
		idOf:      make(map[string]stackresolver.PackageID),
	}

	typeOf := make([]stackresolver.TypeID, 0)

	internPackage := func(p Package) stackresolver.PackageID {
		name := p.Name()
		if id, ok := c.idOf[name]; ok {
			return id
		}
		id := stackresolver.PackageID(len(c.names))
		c.names = append(c.names, name)
		c.idOf[name] = id

		t, ok := c.productID[p.Product]
		if !ok {
			t = stackresolver.TypeID(len(c.productID))
			c.productID[p.Product] = t
		}
		typeOf = append(typeOf, t)
		return id
	}

	var edges []stackresolver.Edge
	for _, dep := range idx.Depends {
		from := internPackage(dep.Target)
		for _, group := range dep.Requires {
			for _, cand := range group {
				to := internPackage(cand)
				edges = append(edges, stackresolver.Edge{From: from, To: to})
			}
		}
	}

	directDeps := make([]stackresolver.PackageID, 0, len(reqs.Requires))
	for _, p := range reqs.Requires {
		id, ok := c.idOf[p.Name()]
		if !ok {
			return nil, nil, nil, fmt.Errorf("catalog: required package %q is not present in the index", p.Name())
		}
		directDeps = append(directDeps, id)
	}

	table := stackresolver.BuildInputTable(directDeps, edges, typeOf, len(c.names))
	return table, directDeps, c, nil
}
