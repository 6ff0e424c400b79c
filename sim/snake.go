package sim

// Snake is the ordered chain of cells the player occupies. The head is
// element 0 and each segment trails the one before it. Movement is a
// shift, every segment steps into the cell its predecessor just left.
type Snake struct {
	body    []Cell
	current Direction
	pending Direction

	lastTail    Cell
	hasLastTail bool
}

func newSnake(head, tail Cell) *Snake {
	return &Snake{body: []Cell{head, tail}}
}

// Head returns the lead cell of the chain
func (s *Snake) Head() Cell {
	return s.body[0]
}

// Tail returns the last cell of the chain
func (s *Snake) Tail() Cell {
	return s.body[len(s.body)-1]
}

// Len returns the number of cells in the chain
func (s *Snake) Len() int {
	return len(s.body)
}

// Cells returns a copy of the chain, head first
func (s *Snake) Cells() []Cell {
	cells := make([]Cell, len(s.body))
	copy(cells, s.body)
	return cells
}

// Heading returns the committed direction of travel
func (s *Snake) Heading() Direction {
	return s.current
}

// RequestDirection buffers d as the heading to commit on the next advance.
// Requests that would reverse the committed heading are dropped, as are
// requests for DirectionUnset. The latest surviving request before the
// next advance wins.
func (s *Snake) RequestDirection(d Direction) {
	if d == DirectionUnset {
		return
	}
	if d == s.current.Opposite() {
		return
	}
	s.pending = d
}

// advance runs one movement step: commit the buffered heading, move the
// head one cell along it and shift every segment into its predecessor's
// old cell. A fatal move leaves the chain untouched and reports the
// collision for the round owner to handle.
func (s *Snake) advance(grid Grid, food *Cell) (MoveOutcome, CollisionCause) {
	if s.pending != DirectionUnset {
		s.current = s.pending
	}
	if s.current == DirectionUnset {
		return MoveOutcomeContinued, CollisionCauseNone
	}

	prev := s.Cells()
	newHead := prev[0].Translate(s.current)

	if !grid.Contains(newHead) {
		return MoveOutcomeCollided, CollisionCauseWall
	}
	// The old tail cell still counts as occupied here even though the
	// shift below vacates it this same tick.
	for _, c := range prev {
		if newHead.Equal(c) {
			return MoveOutcomeCollided, CollisionCauseSelf
		}
	}

	s.body[0] = newHead
	for i := 1; i < len(s.body); i++ {
		s.body[i] = prev[i-1]
	}
	s.lastTail = prev[len(prev)-1]
	s.hasLastTail = true

	if food != nil && newHead.Equal(*food) {
		return MoveOutcomeAteFood, CollisionCauseNone
	}
	return MoveOutcomeContinued, CollisionCauseNone
}

// grow appends one segment at the cell the tail vacated on the most
// recent advance, keeping the chain contiguous.
func (s *Snake) grow() {
	if !s.hasLastTail {
		return
	}
	s.body = append(s.body, s.lastTail)
	s.hasLastTail = false
}
