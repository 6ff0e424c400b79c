package sim

import (
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// Spawn layout for a fresh round. The head sits one cell above the tail so
// the chain is contiguous before the first input arrives.
var (
	spawnHead = Cell{X: 3, Y: 3}
	spawnTail = Cell{X: 3, Y: 2}
)

// Config fixes a simulation's playfield at construction time.
type Config struct {
	Width  int
	Height int
	// Seed drives food placement. Zero seeds from the clock.
	Seed int64
}

// DefaultConfig returns the stock 10 by 10 playfield.
func DefaultConfig() Config {
	return Config{Width: 10, Height: 10}
}

// Simulation owns one snake round: the playfield bounds, the snake chain,
// the food cell and the round state machine. It is not safe for concurrent
// use, the host serializes direction requests and ticks.
type Simulation struct {
	grid  Grid
	snake *Snake
	food  *Cell
	round RoundState

	turn      int64
	growthDue bool
	rng       *rand.Rand
}

// New validates cfg and returns a simulation at the canonical round start:
// a two cell snake on the spawn cells with an unset heading and no food
// yet. Food appears on the first tick. The playfield must fit the spawn
// layout or construction fails.
func New(cfg Config) (*Simulation, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("sim: invalid playfield %dx%d", cfg.Width, cfg.Height)
	}
	grid := Grid{Width: cfg.Width, Height: cfg.Height}
	if !grid.Contains(spawnHead) || !grid.Contains(spawnTail) {
		return nil, fmt.Errorf("sim: playfield %dx%d cannot fit the spawn layout", cfg.Width, cfg.Height)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulation{
		grid:  grid,
		snake: newSnake(spawnHead, spawnTail),
		round: RoundStatePlaying,
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

// Restore rebuilds a mid round simulation from a snapshot, for hosts that
// persist state between runs. growthDue carries whether the snapshot's
// tick ate food, so the deferred extension is not lost in the rebuild. The
// pending input buffer is transient and starts empty.
func Restore(cfg Config, snap *Snapshot, growthDue bool) (*Simulation, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("sim: restore requires a snapshot")
	}
	if len(snap.Cells) < 2 {
		return nil, fmt.Errorf("sim: snapshot chain has %d cells, need at least 2", len(snap.Cells))
	}
	for _, c := range snap.Cells {
		if !s.grid.Contains(c) {
			return nil, fmt.Errorf("sim: snapshot cell (%d,%d) outside the %dx%d playfield", c.X, c.Y, cfg.Width, cfg.Height)
		}
	}
	s.turn = snap.Turn
	s.snake = &Snake{body: append([]Cell(nil), snap.Cells...), current: snap.Heading}
	if snap.Food != nil {
		f := *snap.Food
		if !s.grid.Contains(f) {
			return nil, fmt.Errorf("sim: snapshot food (%d,%d) outside the %dx%d playfield", f.X, f.Y, cfg.Width, cfg.Height)
		}
		if cellOccupied(f, s.snake.body) {
			return nil, fmt.Errorf("sim: snapshot food (%d,%d) overlaps the snake", f.X, f.Y)
		}
		s.food = &f
	}
	s.growthDue = growthDue
	return s, nil
}

// RequestDirection buffers a heading request for the next tick, subject to
// the no reversal rule. Safe to call any number of times between ticks,
// the latest accepted request wins.
func (s *Simulation) RequestDirection(d Direction) {
	if s.snake == nil {
		return
	}
	s.snake.RequestDirection(d)
}

// Tick runs one full simulation step: place food if none is active, commit
// the buffered heading and advance the snake, then settle growth, eating
// and collisions in that order. A collision resets the round in place, so
// the round state carried by the result is back to playing by the time
// Tick returns.
func (s *Simulation) Tick() (*TickResult, error) {
	if s.snake == nil {
		return nil, fmt.Errorf("sim: tick on an uninitialized simulation")
	}
	s.turn++

	// covers round start and the tick after a reset
	if s.food == nil {
		s.placeFood()
	}

	due := s.growthDue
	s.growthDue = false

	outcome, cause := s.snake.advance(s.grid, s.food)
	if outcome == MoveOutcomeCollided {
		log.WithFields(log.Fields{
			"Turn":  s.turn,
			"Cause": cause,
		}).Info("snake collided, round reset")
		s.round = RoundStateGameOver
		s.reset()
		return &TickResult{
			Turn:    s.turn,
			Outcome: outcome,
			Cause:   cause,
			Round:   s.round,
		}, nil
	}

	grew := false
	if due {
		s.snake.grow()
		grew = true
	}

	if outcome == MoveOutcomeAteFood {
		log.WithFields(log.Fields{
			"Turn": s.turn,
			"Food": *s.food,
		}).Info("snake ate")
		s.growthDue = true
		s.placeFood()
	}

	return &TickResult{
		Turn:    s.turn,
		Outcome: outcome,
		Grew:    grew,
		Round:   s.round,
	}, nil
}

// reset rebuilds the round at the canonical start. The collided chain and
// any active food are dropped, a fresh two cell snake takes the spawn
// cells and food placement waits for the next tick.
func (s *Simulation) reset() {
	s.snake = newSnake(spawnHead, spawnTail)
	s.food = nil
	s.growthDue = false
	s.round = RoundStatePlaying
}

// placeFood moves the food to a random cell off the snake. On a board with
// no free cell the food stays absent and placement is retried next tick.
func (s *Simulation) placeFood() {
	c, ok := randomFreeCell(s.rng, s.grid, s.snake.body)
	if !ok {
		s.food = nil
		return
	}
	s.food = &c
}

// Snapshot is the render facing view of one simulation instant.
type Snapshot struct {
	Turn    int64      `json:"turn"`
	Cells   []Cell     `json:"cells"`
	Heading Direction  `json:"heading"`
	Food    *Cell      `json:"food,omitempty"`
	Round   RoundState `json:"round"`
}

// Snapshot returns a read only copy of the visible simulation state. It
// never mutates the simulation.
func (s *Simulation) Snapshot() (*Snapshot, error) {
	if s.snake == nil {
		return nil, fmt.Errorf("sim: snapshot of an uninitialized simulation")
	}
	snap := &Snapshot{
		Turn:    s.turn,
		Cells:   s.snake.Cells(),
		Heading: s.snake.Heading(),
		Round:   s.round,
	}
	if s.food != nil {
		f := *s.food
		snap.Food = &f
	}
	return snap, nil
}
