package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapScan(t *testing.T) {
	t.Run("Bytes", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan([]byte(`{"email":"a@b.c","attempt":2}`)))

		assert.Equal(t, "a@b.c", m.GetString("email"))
		assert.Equal(t, int64(2), m.GetInt64("attempt"))
	})

	t.Run("NilBecomesEmpty", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan(nil))

		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		var m JSONMap
		assert.ErrorIs(t, m.Scan(42), ErrScanJSONMap)
	})
}

func TestJSONMapAccessors(t *testing.T) {
	m := JSONMap{"phone": "+628123", "count": float64(3)}

	assert.True(t, m.Has("phone"))
	assert.False(t, m.Has("email"))
	assert.Equal(t, "+628123", m.GetString("phone"))
	assert.Empty(t, m.GetString("count"))
	assert.Equal(t, int64(3), m.GetInt64("count"))
	assert.Zero(t, m.GetInt64("phone"))
}

func TestJSONMapValue(t *testing.T) {
	v, err := JSONMap{"a": "b"}.Value()

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(v.([]byte)))
}
