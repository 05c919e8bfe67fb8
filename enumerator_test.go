package stackresolver

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeStream splits a raw encoded stream into a slice of stacks (each a
// slice of PackageIDs), verifying it ends in exactly one Stop word.
func decodeStream(t *testing.T, raw []byte) [][]PackageID {
	t.Helper()
	require.Zero(t, len(raw)%4, "stream length must be a multiple of the word width")

	var stacks [][]PackageID
	var current []PackageID
	for i := 0; i < len(raw); i += 4 {
		word := binary.LittleEndian.Uint32(raw[i : i+4])
		switch word {
		case Delimiter:
			stacks = append(stacks, current)
			current = nil
		case Stop:
			require.Equal(t, i, len(raw)-4, "Stop must be the final word")
			return stacks
		default:
			current = append(current, word)
		}
	}
	t.Fatal("stream did not end in Stop")
	return nil
}

func asSets(stacks [][]PackageID) []map[PackageID]bool {
	out := make([]map[PackageID]bool, len(stacks))
	for i, s := range stacks {
		m := make(map[PackageID]bool, len(s))
		for _, id := range s {
			m[id] = true
		}
		out[i] = m
	}
	return out
}

func TestScenarioSingleRootNoDeps(t *testing.T) {
	var buf bytes.Buffer
	e, err := New([]PackageID{0}, nil, []TypeID{0}, 1, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, e.Drain())

	stacks := decodeStream(t, buf.Bytes())
	require.Len(t, stacks, 1)
	assert.Equal(t, []PackageID{0}, stacks[0])
}

// Chain 0 -> 1 -> 2.
func TestScenarioChain(t *testing.T) {
	var buf bytes.Buffer
	edges := []Edge{{0, 1}, {1, 2}}
	e, err := New([]PackageID{0}, edges, []TypeID{0, 1, 2}, 3, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, e.Drain())

	stacks := decodeStream(t, buf.Bytes())
	require.Len(t, stacks, 1)
	assert.Equal(t, []PackageID{0, 1, 2}, stacks[0])
}

// Two direct deps of the same type are never co-admitted into one state,
// since the initial frontier is itself split by type before expansion
// begins — they are alternatives, each producing its own single-package
// stack, not a same-state type conflict.
func TestScenarioDirectConflict(t *testing.T) {
	var buf bytes.Buffer
	e, err := New([]PackageID{0, 1}, nil, []TypeID{0, 0}, 2, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, e.Drain())

	stacks := asSets(decodeStream(t, buf.Bytes()))
	require.Len(t, stacks, 2)
	assert.Contains(t, stacks, map[PackageID]bool{0: true})
	assert.Contains(t, stacks, map[PackageID]bool{1: true})
}

// Diamond dependency: package 3 admitted exactly once.
func TestScenarioDiamond(t *testing.T) {
	var buf bytes.Buffer
	edges := []Edge{{0, 1}, {0, 2}, {1, 3}, {2, 3}}
	e, err := New([]PackageID{0}, edges, []TypeID{0, 1, 2, 3}, 4, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, e.Drain())

	stacks := decodeStream(t, buf.Bytes())
	require.Len(t, stacks, 1)
	assert.ElementsMatch(t, []PackageID{0, 1, 2, 3}, stacks[0])
	assert.Len(t, stacks[0], 4, "package 3 must be admitted exactly once")
}

// Alternative versions produce two distinct stacks.
func TestScenarioAlternativeVersions(t *testing.T) {
	var buf bytes.Buffer
	edges := []Edge{{0, 1}, {0, 2}}
	e, err := New([]PackageID{0}, edges, []TypeID{0, 1, 1}, 3, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, e.Drain())

	stacks := asSets(decodeStream(t, buf.Bytes()))
	require.Len(t, stacks, 2)
	assert.Contains(t, stacks, map[PackageID]bool{0: true, 1: true})
	assert.Contains(t, stacks, map[PackageID]bool{0: true, 2: true})
}

// A cycle is tolerated and terminates.
func TestScenarioCycleTolerated(t *testing.T) {
	var buf bytes.Buffer
	edges := []Edge{{0, 1}, {1, 0}}
	e, err := New([]PackageID{0}, edges, []TypeID{0, 1}, 2, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, e.Drain())

	stacks := decodeStream(t, buf.Bytes())
	require.Len(t, stacks, 1)
	assert.ElementsMatch(t, []PackageID{0, 1}, stacks[0])
}

func TestStepIsIdempotentOnceDone(t *testing.T) {
	var buf bytes.Buffer
	e, err := New([]PackageID{0}, nil, []TypeID{0}, 1, &buf, Options{})
	require.NoError(t, err)

	more, err := e.Step()
	require.NoError(t, err)
	require.True(t, more)

	more, err = e.Step()
	require.NoError(t, err)
	require.False(t, more)

	// A second call to Step after Stop must not write Stop again.
	before := buf.Len()
	more, err = e.Step()
	require.NoError(t, err)
	require.False(t, more)
	assert.Equal(t, before, buf.Len())
}

type fakePresolver struct {
	feasible bool
	err      error
}

func (f fakePresolver) Feasible(*InputTable) (bool, error) { return f.feasible, f.err }

func TestPresolveShortCircuitsInfeasibleInput(t *testing.T) {
	var buf bytes.Buffer
	e, err := New([]PackageID{0, 1}, nil, []TypeID{0, 0}, 2, &buf, Options{Presolver: fakePresolver{feasible: false}})
	require.NoError(t, err)
	require.Zero(t, e.FrontierDepth(), "an infeasible presolve must never seed the frontier")
	require.NoError(t, e.Drain())
	assert.Empty(t, decodeStream(t, buf.Bytes()))
}

func TestPresolveErrorFallsBackToFullExpansion(t *testing.T) {
	var buf bytes.Buffer
	e, err := New([]PackageID{0}, nil, []TypeID{0}, 1, &buf, Options{
		Presolver: fakePresolver{feasible: false, err: assertErr("boom")},
	})
	require.NoError(t, err)
	require.NoError(t, e.Drain())
	stacks := decodeStream(t, buf.Bytes())
	require.Len(t, stacks, 1, "presolve errors must not suppress correct enumeration")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestDeterminismAcrossRuns(t *testing.T) {
	edges := []Edge{{0, 1}, {0, 2}, {1, 3}, {2, 3}, {3, 4}, {3, 5}}
	typeOf := []TypeID{0, 1, 2, 3, 4, 5}

	run := func() []byte {
		var buf bytes.Buffer
		e, err := New([]PackageID{0}, edges, typeOf, 6, &buf, Options{})
		require.NoError(t, err)
		require.NoError(t, e.Drain())
		return buf.Bytes()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}

func TestSinkWriteFailurePropagates(t *testing.T) {
	e, err := New([]PackageID{0}, nil, []TypeID{0}, 1, failingSink{}, Options{})
	require.NoError(t, err)
	_, err = e.Step()
	assert.Error(t, err)
}

type failingSink struct{}

func (failingSink) Write(p []byte) (int, error) { return 0, assertErr("write failed") }
