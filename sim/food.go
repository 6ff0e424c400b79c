package sim

import "math/rand"

// foodPlacementAttempts bounds the rejection sampling phase of placement.
// Past this many occupied draws the board is crowded enough that
// enumerating free cells directly is the cheaper way to terminate.
const foodPlacementAttempts = 30

// randomFreeCell picks a uniformly random cell of the grid that is not in
// occupied. The second return is false when the board has no free cell.
func randomFreeCell(rng *rand.Rand, grid Grid, occupied []Cell) (Cell, bool) {
	for i := 0; i < foodPlacementAttempts; i++ {
		c := Cell{X: rng.Intn(grid.Width), Y: rng.Intn(grid.Height)}
		if !cellOccupied(c, occupied) {
			return c, true
		}
	}

	free := freeCells(grid, occupied)
	if len(free) == 0 {
		return Cell{}, false
	}
	return free[rng.Intn(len(free))], true
}

func cellOccupied(c Cell, occupied []Cell) bool {
	for _, o := range occupied {
		if c.Equal(o) {
			return true
		}
	}
	return false
}

func freeCells(grid Grid, occupied []Cell) []Cell {
	numCandidates := grid.Width*grid.Height - len(occupied)
	if numCandidates < 0 {
		numCandidates = 0
	}
	candidates := make([]Cell, 0, numCandidates)

	for x := 0; x < grid.Width; x++ {
		for y := 0; y < grid.Height; y++ {
			c := Cell{X: x, Y: y}
			if !cellOccupied(c, occupied) {
				candidates = append(candidates, c)
			}
		}
	}

	return candidates
}
