package sim

// Cell is one grid coordinate. x grows rightward and y grows upward.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Equal checks if 2 cells are the same x,y coordinate
func (c Cell) Equal(other Cell) bool {
	return c.X == other.X && c.Y == other.Y
}

// Translate returns the neighboring cell one step along d
func (c Cell) Translate(d Direction) Cell {
	dx, dy := d.offset()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}
