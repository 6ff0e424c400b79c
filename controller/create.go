package controller

import (
	"fmt"
	"math/rand"

	"github.com/gridsnake/engine/config"
	"github.com/gridsnake/engine/sim"
	uuid "github.com/satori/go.uuid"
)

// CreateRequest is the user facing payload for creating a game. Zero
// values fall back to the stock configuration.
type CreateRequest struct {
	Width        int   `json:"width"`
	Height       int   `json:"height"`
	Seed         int64 `json:"seed"`
	TickInterval int64 `json:"tickInterval"`
	MaxTurns     int64 `json:"maxTurns"`
}

// CreateInitialGame builds a stopped game and its initial frame from the
// create request passed in. The playfield is validated up front so a bad
// request fails here instead of inside a worker later.
func CreateInitialGame(req *CreateRequest) (*Game, []*Frame, error) {
	if req == nil {
		req = &CreateRequest{}
	}

	width, height := req.Width, req.Height
	if width == 0 && height == 0 {
		def := sim.DefaultConfig()
		width, height = def.Width, def.Height
	}

	tick := req.TickInterval
	if tick == 0 {
		tick = int64(config.TickInterval)
	}
	if tick < 0 {
		return nil, nil, fmt.Errorf("controller: invalid tick interval %dms", tick)
	}
	if req.MaxTurns < 0 {
		return nil, nil, fmt.Errorf("controller: invalid turn bound %d", req.MaxTurns)
	}

	// The seed is fixed at create time so the game replays identically
	// when another worker picks it up.
	seed := req.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	s, err := sim.New(sim.Config{Width: width, Height: height, Seed: seed})
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, nil, err
	}

	game := &Game{
		ID:           uuid.NewV4().String(),
		Width:        width,
		Height:       height,
		Status:       GameStatusStopped,
		Seed:         seed,
		TickInterval: tick,
		MaxTurns:     req.MaxTurns,
	}
	frames := []*Frame{NewFrame(snap, nil)}

	return game, frames, nil
}
