package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandSet_NormalizesTokens(t *testing.T) {
	set, err := NewCommandSet([]string{" Forward ", "BACK", "left"})
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("forward"))
	assert.True(t, set.Contains("back"))
	assert.True(t, set.Contains("left"))
}

func TestNewCommandSet_DropsEmptyAndDuplicates(t *testing.T) {
	set, err := NewCommandSet([]string{"forward", "", "  ", "forward", "FORWARD"})
	require.NoError(t, err)

	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Contains("forward"))
}

func TestNewCommandSet_Empty(t *testing.T) {
	_, err := NewCommandSet(nil)
	assert.Error(t, err)

	_, err = NewCommandSet([]string{"", "  "})
	assert.Error(t, err)
}

func TestCommandSet_ContainsIsExact(t *testing.T) {
	set := MustCommandSet("forward")

	assert.True(t, set.Contains("forward"))
	assert.False(t, set.Contains("Forward"))
	assert.False(t, set.Contains("forward "))
	assert.False(t, set.Contains("back"))
}

func TestCommandSet_SliceSorted(t *testing.T) {
	set := MustCommandSet("right", "back", "forward", "left")

	assert.Equal(t, []string{"back", "forward", "left", "right"}, set.Slice())
}

func TestMustCommandSet_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { MustCommandSet() })
}
