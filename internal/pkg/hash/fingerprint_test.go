package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSHA256Sum(t *testing.T) {
	h := NewHMACSHA256("secret")

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, h.Sum("7", "email", "hello"), h.Sum("7", "email", "hello"))
	})

	t.Run("NormalizesCaseAndSpace", func(t *testing.T) {
		assert.Equal(t, h.Sum("7", "email", "hello"), h.Sum("7", " EMAIL ", "Hello"))
	})

	t.Run("PartBoundariesMatter", func(t *testing.T) {
		assert.NotEqual(t, h.Sum("ab", "c"), h.Sum("a", "bc"))
	})

	t.Run("SecretScoped", func(t *testing.T) {
		assert.NotEqual(t, h.Sum("7", "email", "hello"), NewHMACSHA256("other").Sum("7", "email", "hello"))
	})

	t.Run("HexOutput", func(t *testing.T) {
		assert.Len(t, h.Sum("x"), 64)
	})
}
