// Command libresolver builds a cgo shared library exposing the
// resolution stack enumerator as three C symbols: construct,
// step-or-drain, destroy. Handles are opaque uint64 keys into a
// concurrency-safe table (a sync.Map) — never raw Go pointers — the same discipline
// pigosat itself is wrapped with on the other side of a C ABI.
//
// Build with:
//
//	go build -buildmode=c-shared -o libresolver.so ./cmd/libresolver
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/thoth-station/stackresolver"
	"github.com/thoth-station/stackresolver/internal/sink"
)

var (
	handles    sync.Map // uint64 -> *stackresolver.Enumerator
	nextHandle uint64
)

func recoverToErr(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
		} else {
			*err = errOf(r)
		}
	}
}

type panicErr struct{ v interface{} }

func (p panicErr) Error() string { return "stackresolver: panic recovered at cgo boundary" }

func errOf(v interface{}) error { return panicErr{v} }

//export stackresolver_new
func stackresolver_new(directDeps *C.uint32_t, nDirect C.size_t,
	edgesFrom, edgesTo *C.uint32_t, nEdges C.size_t,
	typeOf *C.uint32_t, n C.size_t,
	sinkFD C.int) (handle C.uint64_t) {

	var err error
	defer recoverToErr(&err)
	defer func() {
		if err != nil {
			handle = 0
		}
	}()

	rawDirect := cUint32Slice(directDeps, int(nDirect))
	dd := make([]stackresolver.PackageID, len(rawDirect))
	for i, v := range rawDirect {
		dd[i] = stackresolver.PackageID(v)
	}

	rawFrom := cUint32Slice(edgesFrom, int(nEdges))
	rawTo := cUint32Slice(edgesTo, int(nEdges))
	edges := make([]stackresolver.Edge, int(nEdges))
	for i := range edges {
		edges[i] = stackresolver.Edge{
			From: stackresolver.PackageID(rawFrom[i]),
			To:   stackresolver.PackageID(rawTo[i]),
		}
	}

	rawTypes := cUint32Slice(typeOf, int(n))
	types := make([]stackresolver.TypeID, len(rawTypes))
	for i, v := range rawTypes {
		types[i] = stackresolver.TypeID(v)
	}

	f := os.NewFile(uintptr(sinkFD), "stackresolver-sink")
	if f == nil {
		return 0
	}
	w := sink.NewWriter(f)

	e, buildErr := stackresolver.New(dd, edges, types, int(n), w, stackresolver.Options{})
	if buildErr != nil {
		return 0
	}

	id := atomic.AddUint64(&nextHandle, 1)
	handles.Store(id, e)
	return C.uint64_t(id)
}

//export stackresolver_step
func stackresolver_step(handle C.uint64_t) (result C.int) {
	var err error
	defer func() {
		if err != nil {
			result = -1
		}
	}()
	defer recoverToErr(&err)

	v, ok := handles.Load(uint64(handle))
	if !ok {
		return -1
	}
	e := v.(*stackresolver.Enumerator)

	more, stepErr := e.Step()
	if stepErr != nil {
		return -1
	}
	if more {
		return 1
	}
	return 0
}

//export stackresolver_drain
func stackresolver_drain(handle C.uint64_t) (result C.int) {
	var err error
	defer func() {
		if err != nil {
			result = -1
		}
	}()
	defer recoverToErr(&err)

	v, ok := handles.Load(uint64(handle))
	if !ok {
		return -1
	}
	e := v.(*stackresolver.Enumerator)

	if drainErr := e.Drain(); drainErr != nil {
		return -1
	}
	return 0
}

//export stackresolver_destroy
func stackresolver_destroy(handle C.uint64_t) {
	defer func() { recover() }()

	v, ok := handles.LoadAndDelete(uint64(handle))
	if !ok {
		return
	}
	e := v.(*stackresolver.Enumerator)
	e.Close()
}

// cUint32Slice views a C uint32_t array as a Go []uint32 without a copy.
// A nil p with n == 0 (e.g. an empty edges array) yields an empty slice
// rather than dereferencing a null pointer.
func cUint32Slice(p *C.uint32_t, n int) []uint32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(p)), n)
}

func main() {}
