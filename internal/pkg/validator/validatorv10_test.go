package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietWindow struct {
	Start string `validate:"required,hhmm"`
	End   string `validate:"required,hhmm"`
}

func TestV10ValidatorHHMM(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("ValidWindow", func(t *testing.T) {
		assert.NoError(t, v.Validate(quietWindow{Start: "22:00", End: "07:30"}))
	})

	t.Run("MidnightBoundaries", func(t *testing.T) {
		assert.NoError(t, v.Validate(quietWindow{Start: "00:00", End: "23:59"}))
	})

	t.Run("HourOutOfRange", func(t *testing.T) {
		err := v.Validate(quietWindow{Start: "24:00", End: "07:00"})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "start")
	})

	t.Run("MissingLeadingZero", func(t *testing.T) {
		assert.Error(t, v.Validate(quietWindow{Start: "9:00", End: "17:00"}))
	})
}

func TestV10ValidatorFieldNames(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	in := struct {
		UserID      int64 `validate:"required,gt=0"`
		HourlyLimit int64 `validate:"gte=0"`
	}{UserID: 0, HourlyLimit: -1}

	err = v.Validate(in)

	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Values(), "user_id")
	assert.Contains(t, verr.Values(), "hourly_limit")
}
