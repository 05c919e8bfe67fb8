// Package sink provides stackresolver.Sink implementations beyond the
// bare io.Writer the core package already accepts directly. The core's
// encoder only ever needs a Write([]byte) method, so every sink here is
// a thin adapter that ultimately funnels bytes through one — nothing
// here reinterprets the wire format.
package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// Writer wraps any io.Writer as a stackresolver.Sink. It exists mainly
// for symmetry with RedisStream below — most callers can just pass an
// *os.File or net.Conn directly, since stackresolver.Sink is already
// io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter adapts w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write implements stackresolver.Sink.
func (s *Writer) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// RedisStream publishes each raw word chunk written by the encoder to a
// Redis stream via XADD, for a host that wants other processes to
// observe stack emission as it happens rather than reading a pipe.
// Framing (delimiters, stop sentinel) is preserved byte-for-byte inside
// the "data" field; RedisStream does not parse or re-frame it.
type RedisStream struct {
	client *redis.Client
	stream string
	ctx    context.Context
	seq    int64
}

// NewRedisStream returns a RedisStream that appends to the named stream
// key via client. ctx bounds every XADD call; callers running a
// long-lived drain should pass context.Background() and rely on Write's
// error return to terminate the run if the connection drops.
func NewRedisStream(ctx context.Context, client *redis.Client, stream string) *RedisStream {
	return &RedisStream{client: client, stream: stream, ctx: ctx}
}

// Write implements stackresolver.Sink by XADD-ing one entry per chunk
// the encoder writes. The encoder writes one word (4 bytes) at a time,
// so in practice each entry holds a single framed word; this is a
// deliberate trade against throughput in exchange for every consumer
// seeing stacks delimited exactly as the wire format defines them.
func (s *RedisStream) Write(p []byte) (int, error) {
	s.seq++
	_, err := s.client.XAdd(s.ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"seq": s.seq, "data": p},
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("sink: redis XADD to stream %q: %w", s.stream, err)
	}
	return len(p), nil
}
