package envutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookups(t *testing.T) {
	t.Setenv("ENVUTIL_STR", "  calais ")
	t.Setenv("ENVUTIL_INT", "7")
	t.Setenv("ENVUTIL_BAD_INT", "seven")
	t.Setenv("ENVUTIL_BOOL", "yes")

	assert.Equal(t, "calais", String("ENVUTIL_STR", "x"))
	assert.Equal(t, "x", String("ENVUTIL_MISSING", "x"))
	assert.Equal(t, 7, Int("ENVUTIL_INT", 1))
	assert.Equal(t, 1, Int("ENVUTIL_BAD_INT", 1))
	assert.True(t, Bool("ENVUTIL_BOOL", false))
	assert.False(t, Bool("ENVUTIL_MISSING", false))
}
