package sim

import "fmt"

// Direction is a heading on the grid. The zero value is DirectionUnset,
// the state before the first input of a round has been accepted.
type Direction string

const (
	// DirectionUnset means no heading has been accepted yet, the snake
	// holds its position until one arrives
	DirectionUnset Direction = ""
	// DirectionUp moves the head one cell up (y + 1)
	DirectionUp Direction = "up"
	// DirectionDown moves the head one cell down (y - 1)
	DirectionDown Direction = "down"
	// DirectionLeft moves the head one cell left (x - 1)
	DirectionLeft Direction = "left"
	// DirectionRight moves the head one cell right (x + 1)
	DirectionRight Direction = "right"
)

// Opposite returns the reversing heading for the four movement directions.
// Unset reverses to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	}
	return DirectionUnset
}

// offset returns the per step change in x and y. Unset does not move.
func (d Direction) offset() (dx, dy int) {
	switch d {
	case DirectionUp:
		return 0, 1
	case DirectionDown:
		return 0, -1
	case DirectionLeft:
		return -1, 0
	case DirectionRight:
		return 1, 0
	}
	return 0, 0
}

// ParseDirection maps wire input to a Direction. Anything other than the
// four movement directions is rejected so bad input stops at the edge.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return d, nil
	}
	return DirectionUnset, fmt.Errorf("sim: unknown direction %q", s)
}
