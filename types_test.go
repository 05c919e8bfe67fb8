package stackresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInputTableGroupsEdgesByFrom(t *testing.T) {
	edges := []Edge{{0, 1}, {0, 2}, {1, 2}}
	table := BuildInputTable([]PackageID{0}, edges, []TypeID{0, 1, 2}, 3)

	assert.Equal(t, []PackageID{1, 2}, table.DepsOf(0))
	assert.Equal(t, []PackageID{2}, table.DepsOf(1))
	assert.Empty(t, table.DepsOf(2))
}

func TestBuildInputTableToleratesDuplicateEdges(t *testing.T) {
	edges := []Edge{{0, 1}, {0, 1}}
	table := BuildInputTable([]PackageID{0}, edges, []TypeID{0, 1}, 2)
	assert.Equal(t, []PackageID{1, 1}, table.DepsOf(0))
}

func TestBuildInputTablePanicsOnOutOfRangeDirectDep(t *testing.T) {
	assert.Panics(t, func() {
		BuildInputTable([]PackageID{5}, nil, []TypeID{0}, 1)
	})
}

func TestBuildInputTablePanicsOnOutOfRangeEdge(t *testing.T) {
	assert.Panics(t, func() {
		BuildInputTable(nil, []Edge{{0, 5}}, []TypeID{0}, 1)
	})
}

func TestBuildInputTablePanicsOnTypeOfLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		BuildInputTable(nil, nil, []TypeID{0, 1}, 1)
	})
}

func TestBuildInputTablePanicsOnTooLargeN(t *testing.T) {
	assert.Panics(t, func() {
		BuildInputTable(nil, nil, nil, int(MaxPackages)+2)
	})
}
