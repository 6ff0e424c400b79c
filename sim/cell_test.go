package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellEqual(t *testing.T) {
	require.True(t, Cell{X: 3, Y: 4}.Equal(Cell{X: 3, Y: 4}))
	require.False(t, Cell{X: 3, Y: 4}.Equal(Cell{X: 4, Y: 3}))
}

func TestCellTranslate(t *testing.T) {
	c := Cell{X: 3, Y: 3}
	require.Equal(t, Cell{X: 3, Y: 4}, c.Translate(DirectionUp))
	require.Equal(t, Cell{X: 3, Y: 2}, c.Translate(DirectionDown))
	require.Equal(t, Cell{X: 2, Y: 3}, c.Translate(DirectionLeft))
	require.Equal(t, Cell{X: 4, Y: 3}, c.Translate(DirectionRight))
	require.Equal(t, c, c.Translate(DirectionUnset))
}

func TestGridContains(t *testing.T) {
	g := Grid{Width: 10, Height: 10}
	require.True(t, g.Contains(Cell{X: 0, Y: 0}))
	require.True(t, g.Contains(Cell{X: 9, Y: 9}))
	require.False(t, g.Contains(Cell{X: -1, Y: 0}))
	require.False(t, g.Contains(Cell{X: 0, Y: -1}))
	require.False(t, g.Contains(Cell{X: 10, Y: 0}))
	require.False(t, g.Contains(Cell{X: 0, Y: 10}))
}
