package stackresolver

import (
	"encoding/binary"
	"io"
)

// Sink is the byte-oriented destination for an encoded stream: a sequence
// of fixed-width little-endian uint32 words. Any io.Writer satisfies Sink
// directly; see internal/sink for additional implementations (e.g. a
// Redis-stream-backed sink).
type Sink = io.Writer

// encoder writes completed stacks to a Sink: each stack is the admitted
// PackageIDs (in insertion order) followed by Delimiter; after the final
// stack, exactly one Stop word is written. The encoder performs raw
// writes and does not buffer — callers wanting buffered output should
// wrap their Sink in a *bufio.Writer themselves.
type encoder struct {
	sink Sink
	buf  [4]byte
}

func newEncoder(sink Sink) *encoder {
	return &encoder{sink: sink}
}

func (e *encoder) writeWord(w uint32) error {
	binary.LittleEndian.PutUint32(e.buf[:], w)
	_, err := e.sink.Write(e.buf[:])
	return err
}

// writeStack encodes one completed stack's membership followed by
// Delimiter.
func (e *encoder) writeStack(ids []PackageID) error {
	for _, id := range ids {
		if err := e.writeWord(id); err != nil {
			return err
		}
	}
	return e.writeWord(Delimiter)
}

// writeStop writes the single end-of-stream sentinel.
func (e *encoder) writeStop() error {
	return e.writeWord(Stop)
}
