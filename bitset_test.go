package stackresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsetSetHas(t *testing.T) {
	b := newBitset(200)
	assert.False(t, b.has(0))
	assert.False(t, b.has(130))

	b.set(0)
	b.set(130)
	assert.True(t, b.has(0))
	assert.True(t, b.has(130))
	assert.False(t, b.has(1))
}

func TestBitsetCloneIsIndependent(t *testing.T) {
	a := newBitset(64)
	a.set(5)
	b := a.clone()
	b.set(6)

	assert.True(t, a.has(5))
	assert.False(t, a.has(6))
	assert.True(t, b.has(5))
	assert.True(t, b.has(6))
}
