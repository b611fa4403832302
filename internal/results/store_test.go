package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetMissingReturnsAbsent(t *testing.T) {
	s := New()

	v := s.Get("nothing")
	assert.True(t, IsAbsent(v))
	assert.Equal(t, "<absent>", v.(interface{ String() string }).String())
}

func TestStore_SetGet(t *testing.T) {
	s := New()
	s.Set("buffer_distance", 100.0)

	v := s.Get("buffer_distance")
	assert.False(t, IsAbsent(v))
	assert.Equal(t, 100.0, v)

	got, ok := s.Lookup("buffer_distance")
	require.True(t, ok)
	assert.Equal(t, 100.0, got)
}

func TestStore_SetNilDeletes(t *testing.T) {
	s := New()
	s.Set("k", "v")
	s.Set("k", nil)

	_, ok := s.Lookup("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_KeysSorted(t *testing.T) {
	s := New()
	s.Set("b", 1)
	s.Set("a", 2)
	s.Set("c", 3)
	s.Delete("c")

	assert.Equal(t, []Key{"a", "b"}, s.Keys())
}

func TestTyped(t *testing.T) {
	s := New()
	s.Set("n", 7)
	s.Set("s", "seven")

	n, ok := Typed[int](s, "n")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = Typed[int](s, "s")
	assert.False(t, ok)

	_, ok = Typed[string](s, "missing")
	assert.False(t, ok)
}

func TestStore_ZeroValue(t *testing.T) {
	var s Store

	assert.True(t, IsAbsent(s.Get("mode")))
	assert.Empty(t, s.Keys())
	s.Delete("mode")

	s.Set("mode", "draw")
	assert.Equal(t, "draw", s.Get("mode"))
	assert.Equal(t, 1, s.Len())
}
