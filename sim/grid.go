package sim

// Grid is the fixed playfield. Valid cells run from (0, 0) up to
// (Width-1, Height-1).
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether c lies inside the playfield
func (g Grid) Contains(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}
