package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A nil *Store must behave as a pure no-op: audit logging is optional
// and must never be the reason a resolution run fails.
func TestNilStoreRecordIsNoOp(t *testing.T) {
	var s *Store
	err := s.Record(context.Background(), Run{RunID: "test"})
	assert.NoError(t, err)
}

func TestNilStoreRecentIsNoOp(t *testing.T) {
	var s *Store
	runs, err := s.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Nil(t, runs)
}
