package sink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterDelegatesToUnderlyingWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	n, err := w.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())
}

// RedisStream.Write propagates a connection failure as a wrapped error:
// it must not swallow the error or report a short write as success.
func TestRedisStreamWritePropagatesConnectionError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1", // nothing listens here
		DialTimeout: 50 * time.Millisecond,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	rs := NewRedisStream(ctx, client, "stackresolver:test")
	_, err := rs.Write([]byte{0, 0, 0, 0})
	assert.Error(t, err)
}
