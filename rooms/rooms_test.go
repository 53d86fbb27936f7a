package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHasThirtyRooms(t *testing.T) {
	all := All()
	require.Len(t, all, 30)
	for i, room := range all {
		assert.Equal(t, i+1, room.Key)
		assert.NotEmpty(t, room.Name)
	}
}

func TestGetKnownRoom(t *testing.T) {
	room, err := Get(9)
	require.NoError(t, err)
	assert.Equal(t, 9, room.Key)
	assert.Contains(t, room.Name, "التوبة")
}

func TestGetOutOfRange(t *testing.T) {
	for _, key := range []int{0, -1, 31, 100} {
		_, err := Get(key)
		assert.ErrorIs(t, err, ErrUnknownRoom)
		assert.False(t, Valid(key))
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "mutated"
	fresh, err := Get(1)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh.Name)
}
