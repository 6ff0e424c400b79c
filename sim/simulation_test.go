package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Width: 0, Height: 10})
	require.Error(t, err)
	_, err = New(Config{Width: 10, Height: -1})
	require.Error(t, err)

	// the spawn layout has to fit on the playfield
	_, err = New(Config{Width: 3, Height: 10})
	require.Error(t, err)
	_, err = New(Config{Width: 10, Height: 3})
	require.Error(t, err)

	s, err := New(Config{Width: 4, Height: 4})
	require.NoError(t, err)
	require.NotNil(t, s)

	s, err = New(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestUninitializedSimulation(t *testing.T) {
	s := &Simulation{}
	_, err := s.Tick()
	require.Error(t, err)
	_, err = s.Snapshot()
	require.Error(t, err)
	s.RequestDirection(DirectionUp) // must not panic
}

func TestFirstTickPlacesFoodAndHoldsPosition(t *testing.T) {
	s, err := New(Config{Width: 10, Height: 10, Seed: 1})
	require.NoError(t, err)

	res, err := s.Tick()
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Turn)
	require.Equal(t, MoveOutcomeContinued, res.Outcome)
	require.False(t, res.Grew)
	require.Equal(t, RoundStatePlaying, res.Round)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []Cell{{X: 3, Y: 3}, {X: 3, Y: 2}}, snap.Cells)
	require.Equal(t, DirectionUnset, snap.Heading)
	require.NotNil(t, snap.Food)
	require.False(t, cellOccupied(*snap.Food, snap.Cells))
}

func TestFirstMoveUp(t *testing.T) {
	s, err := New(Config{Width: 10, Height: 10, Seed: 1})
	require.NoError(t, err)

	s.RequestDirection(DirectionUp)
	_, err = s.Tick()
	require.NoError(t, err)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []Cell{{X: 3, Y: 4}, {X: 3, Y: 3}}, snap.Cells)
	require.Equal(t, DirectionUp, snap.Heading)
}

func TestWallCollisionResetsRound(t *testing.T) {
	s, err := New(Config{Width: 10, Height: 10, Seed: 1})
	require.NoError(t, err)

	// three ticks walk the head from (3,3) to (0,3), the fourth runs it
	// off the playfield
	s.RequestDirection(DirectionLeft)
	for i := 0; i < 3; i++ {
		_, err = s.Tick()
		require.NoError(t, err)
	}
	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, Cell{X: 0, Y: 3}, snap.Cells[0])

	res, err := s.Tick()
	require.NoError(t, err)
	require.Equal(t, int64(4), res.Turn)
	require.Equal(t, MoveOutcomeCollided, res.Outcome)
	require.Equal(t, CollisionCauseWall, res.Cause)
	require.False(t, res.Grew)
	require.Equal(t, RoundStatePlaying, res.Round)

	// the reset restores the canonical start and clears the food
	snap, err = s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []Cell{{X: 3, Y: 3}, {X: 3, Y: 2}}, snap.Cells)
	require.Equal(t, DirectionUnset, snap.Heading)
	require.Nil(t, snap.Food)
	require.Equal(t, RoundStatePlaying, snap.Round)

	// food respawns on the tick after the reset
	res, err = s.Tick()
	require.NoError(t, err)
	require.Equal(t, int64(5), res.Turn)
	snap, err = s.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Food)
}

func TestEatGrowsOneTickLater(t *testing.T) {
	s, err := Restore(Config{Width: 10, Height: 10, Seed: 1}, &Snapshot{
		Cells:   []Cell{{X: 3, Y: 3}, {X: 3, Y: 2}},
		Heading: DirectionUnset,
		Food:    &Cell{X: 3, Y: 4},
	}, false)
	require.NoError(t, err)

	s.RequestDirection(DirectionUp)
	res, err := s.Tick()
	require.NoError(t, err)
	require.Equal(t, MoveOutcomeAteFood, res.Outcome)
	require.False(t, res.Grew)

	// the chain shifted onto the food but did not extend this tick
	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []Cell{{X: 3, Y: 4}, {X: 3, Y: 3}}, snap.Cells)
	require.NotNil(t, snap.Food)
	require.False(t, cellOccupied(*snap.Food, snap.Cells))

	res, err = s.Tick()
	require.NoError(t, err)
	require.True(t, res.Grew)

	snap, err = s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []Cell{{X: 3, Y: 5}, {X: 3, Y: 4}, {X: 3, Y: 3}}, snap.Cells)
}

func TestSnakeStaysInBoundsAndContiguous(t *testing.T) {
	s, err := New(Config{Width: 10, Height: 10, Seed: 7})
	require.NoError(t, err)
	grid := Grid{Width: 10, Height: 10}

	walk := rand.New(rand.NewSource(99))
	dirs := []Direction{DirectionUp, DirectionDown, DirectionLeft, DirectionRight}

	for i := 0; i < 500; i++ {
		s.RequestDirection(dirs[walk.Intn(len(dirs))])
		_, err := s.Tick()
		require.NoError(t, err)

		snap, err := s.Snapshot()
		require.NoError(t, err)
		require.True(t, len(snap.Cells) >= 2)

		seen := map[Cell]bool{}
		for _, c := range snap.Cells {
			require.True(t, grid.Contains(c))
			require.False(t, seen[c], "turn %d: duplicate cell (%d,%d)", snap.Turn, c.X, c.Y)
			seen[c] = true
		}
		if snap.Food != nil {
			require.False(t, seen[*snap.Food], "turn %d: food on the snake", snap.Turn)
		}
	}
}

func TestSameSeedSameRun(t *testing.T) {
	script := make([]Direction, 300)
	dirs := []Direction{DirectionUp, DirectionDown, DirectionLeft, DirectionRight}
	walk := rand.New(rand.NewSource(11))
	for i := range script {
		script[i] = dirs[walk.Intn(len(dirs))]
	}

	a, err := New(Config{Width: 10, Height: 10, Seed: 5})
	require.NoError(t, err)
	b, err := New(Config{Width: 10, Height: 10, Seed: 5})
	require.NoError(t, err)

	for _, d := range script {
		a.RequestDirection(d)
		b.RequestDirection(d)
		_, err = a.Tick()
		require.NoError(t, err)
		_, err = b.Tick()
		require.NoError(t, err)

		snapA, err := a.Snapshot()
		require.NoError(t, err)
		snapB, err := b.Snapshot()
		require.NoError(t, err)
		require.Equal(t, snapA, snapB)
	}
}

func TestRestore(t *testing.T) {
	cfg := Config{Width: 10, Height: 10, Seed: 1}

	_, err := Restore(cfg, nil, false)
	require.Error(t, err)

	_, err = Restore(cfg, &Snapshot{Cells: []Cell{{X: 3, Y: 3}}}, false)
	require.Error(t, err)

	_, err = Restore(cfg, &Snapshot{
		Cells: []Cell{{X: 3, Y: 3}, {X: 3, Y: 12}},
	}, false)
	require.Error(t, err)

	_, err = Restore(cfg, &Snapshot{
		Cells: []Cell{{X: 3, Y: 3}, {X: 3, Y: 2}},
		Food:  &Cell{X: 3, Y: 2},
	}, false)
	require.Error(t, err)

	_, err = Restore(cfg, &Snapshot{
		Cells: []Cell{{X: 3, Y: 3}, {X: 3, Y: 2}},
		Food:  &Cell{X: 10, Y: 2},
	}, false)
	require.Error(t, err)

	s, err := Restore(cfg, &Snapshot{
		Turn:    41,
		Cells:   []Cell{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}},
		Heading: DirectionUp,
	}, true)
	require.NoError(t, err)

	res, err := s.Tick()
	require.NoError(t, err)
	require.Equal(t, int64(42), res.Turn)
	require.True(t, res.Grew)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []Cell{{X: 5, Y: 6}, {X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}}, snap.Cells)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, err := New(Config{Width: 10, Height: 10, Seed: 1})
	require.NoError(t, err)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	snap.Cells[0] = Cell{X: 9, Y: 9}

	again, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, Cell{X: 3, Y: 3}, again.Cells[0])
}
