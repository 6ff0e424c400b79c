package controller

import "github.com/gridsnake/engine/sim"

// GameStatus tracks where a hosted game is in its lifecycle.
type GameStatus string

const (
	// GameStatusStopped represents a created game that no one has started
	GameStatusStopped GameStatus = "stopped"
	// GameStatusRunning represents a game workers may pick up and advance
	GameStatusRunning GameStatus = "running"
	// GameStatusError represents a game that ended because of an error
	GameStatusError GameStatus = "error"
	// GameStatusComplete represents a game that reached its turn bound
	GameStatusComplete GameStatus = "complete"
)

// Game is the hosted description of one simulation: the playfield, the
// pacing and the bound on how long workers keep it ticking.
type Game struct {
	ID     string     `json:"id"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Status GameStatus `json:"status"`
	// Seed fixes the food placement sequence so a game replays the same
	// way after a worker restart.
	Seed int64 `json:"seed"`
	// TickInterval is the simulation step pace in milliseconds.
	TickInterval int64 `json:"tickInterval"`
	// MaxTurns stops the game after this many ticks. Zero never stops,
	// rounds reset themselves so there is no other end condition.
	MaxTurns int64 `json:"maxTurns"`
}

// SimConfig maps the hosted game onto a simulation configuration.
func (g *Game) SimConfig() sim.Config {
	return sim.Config{Width: g.Width, Height: g.Height, Seed: g.Seed}
}

// Frame is one stored simulation step: the snapshot visible after the
// tick, plus what the tick reported happened.
type Frame struct {
	Turn    int64              `json:"turn"`
	Cells   []sim.Cell         `json:"cells"`
	Heading sim.Direction      `json:"heading"`
	Food    *sim.Cell          `json:"food,omitempty"`
	Round   sim.RoundState     `json:"round"`
	Outcome sim.MoveOutcome    `json:"outcome,omitempty"`
	Cause   sim.CollisionCause `json:"cause,omitempty"`
	Grew    bool               `json:"grew,omitempty"`
}

// NewFrame pairs a snapshot with the tick result that produced it. The
// result is nil for the initial frame of a game.
func NewFrame(snap *sim.Snapshot, res *sim.TickResult) *Frame {
	f := &Frame{
		Turn:    snap.Turn,
		Cells:   snap.Cells,
		Heading: snap.Heading,
		Food:    snap.Food,
		Round:   snap.Round,
	}
	if res != nil {
		f.Outcome = res.Outcome
		f.Cause = res.Cause
		f.Grew = res.Grew
	}
	return f
}

// Snapshot converts the frame back into the simulation's read model.
func (f *Frame) Snapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Turn:    f.Turn,
		Cells:   f.Cells,
		Heading: f.Heading,
		Food:    f.Food,
		Round:   f.Round,
	}
}

// GrowthPending reports whether the tick after this frame still owes the
// chain its deferred segment.
func (f *Frame) GrowthPending() bool {
	return f.Outcome == sim.MoveOutcomeAteFood
}
