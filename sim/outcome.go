package sim

// MoveOutcome is the result of advancing the snake by one tick.
type MoveOutcome string

const (
	// MoveOutcomeContinued means the snake moved, or held position while
	// the heading is still unset, without hitting anything
	MoveOutcomeContinued MoveOutcome = "continued"
	// MoveOutcomeAteFood means the head landed on the food cell
	MoveOutcomeAteFood MoveOutcome = "ate-food"
	// MoveOutcomeCollided means the move was fatal and the round was reset
	MoveOutcomeCollided MoveOutcome = "collided"
)

// CollisionCause names what the head ran into on a collided tick.
type CollisionCause string

const (
	// CollisionCauseNone accompanies every non-collided outcome
	CollisionCauseNone CollisionCause = ""
	// CollisionCauseWall is when the head runs off the playfield
	CollisionCauseWall CollisionCause = "wall-collision"
	// CollisionCauseSelf is when the head runs into the snake's own body
	CollisionCauseSelf CollisionCause = "self-collision"
)

// RoundState says whether a round is in play. A collision moves the round
// through RoundStateGameOver and straight back to RoundStatePlaying inside
// the same tick, so the state seen between ticks is always playing.
type RoundState string

const (
	// RoundStatePlaying is the normal in-play state
	RoundStatePlaying RoundState = "playing"
	// RoundStateGameOver is the momentary state between a collision and
	// the reset that follows it
	RoundStateGameOver RoundState = "game-over"
)

// TickResult reports what one simulation tick did. Grew is set on the tick
// the chain actually extended, one tick after the food was eaten.
type TickResult struct {
	Turn    int64          `json:"turn"`
	Outcome MoveOutcome    `json:"outcome"`
	Cause   CollisionCause `json:"cause,omitempty"`
	Grew    bool           `json:"grew"`
	Round   RoundState     `json:"round"`
}
