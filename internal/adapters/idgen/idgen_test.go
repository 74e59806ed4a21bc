package idgen

import (
	"testing"

	"github.com/dkeye/Share/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_RoomIDShape(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	for range 200 {
		id := g.RoomID()
		parsed, err := domain.ParseRoomID(string(id))
		require.NoError(t, err, "generated id %q must parse", id)
		assert.Equal(t, id, parsed)
	}
}

func TestGenerator_OpaqueUnique(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for range 100 {
		v := g.Opaque()
		assert.NotEmpty(t, v)
		assert.False(t, seen[v], "duplicate opaque id %s", v)
		seen[v] = true
	}
}
