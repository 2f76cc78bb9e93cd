package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreBurst(t *testing.T) {
	store := NewMemoryStore(1, 2)

	assert.True(t, store.Allow("op-1"))
	assert.True(t, store.Allow("op-1"))
	assert.False(t, store.Allow("op-1"))
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(1, 1)

	assert.True(t, store.Allow("op-1"))
	assert.False(t, store.Allow("op-1"))

	// A different key has its own bucket.
	assert.True(t, store.Allow("op-2"))
}

func TestMemoryStoreDefaults(t *testing.T) {
	store := NewMemoryStore(0, 0)

	// Sane fallbacks keep a zero-valued config usable.
	for i := 0; i < 10; i++ {
		assert.True(t, store.Allow("op-1"))
	}
	assert.False(t, store.Allow("op-1"))
}
