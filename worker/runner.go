package worker

import (
	"context"
	"time"

	"github.com/gridsnake/engine/config"
	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	log "github.com/sirupsen/logrus"
)

// Runner will run an individual game until its turn bound is reached or the
// context ends. It takes the store and a game id as arguments.
func Runner(ctx context.Context, store controller.Store, id string) error {
	game, err := store.GetGame(ctx, id)
	if err != nil {
		return err
	}

	simulation, err := restoreSimulation(ctx, store, game)
	if err != nil {
		// A game that cannot be restored cannot make progress, flag it so
		// workers stop picking it up.
		log.WithError(err).
			WithField("game", id).
			Error("ending game due to fatal error")
		if serr := store.SetGameStatus(ctx, id, controller.GameStatusError); serr != nil {
			log.WithError(serr).
				WithField("game", id).
				Error("failed to end game after fatal error")
		}
		return err
	}

	turnDelay := time.Duration(game.TickInterval) * time.Millisecond
	pollDelay := time.Duration(config.InputPollInterval) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()

		// Feed buffered player input to the simulation before stepping.
		d, err := store.PopDirection(ctx, id)
		if err != nil {
			return err
		}
		simulation.RequestDirection(d)

		res, err := simulation.Tick()
		if err != nil {
			log.WithError(err).
				WithField("game", id).
				Error("ending game due to fatal error")
			if serr := store.SetGameStatus(ctx, id, controller.GameStatusError); serr != nil {
				log.WithError(serr).
					WithField("game", id).
					Error("failed to end game after fatal error")
			}
			return err
		}

		snap, err := simulation.Snapshot()
		if err != nil {
			return err
		}

		log.WithField("game", id).
			WithField("turn", res.Turn).
			Info("adding game frame")
		if err := store.PushGameFrame(ctx, id, controller.NewFrame(snap, res)); err != nil {
			// This is likely a lock or sequence error, not to worry here,
			// another worker owns the game now.
			return err
		}

		if game.MaxTurns > 0 && res.Turn >= game.MaxTurns {
			log.WithField("game", id).
				WithField("turn", res.Turn).
				Info("ending game")
			return store.SetGameStatus(ctx, id, controller.GameStatusComplete)
		}

		// Pace the loop so ticks land turnDelay apart. While waiting, keep
		// draining the direction mailbox so the simulation's own input
		// buffering decides which request survives, not the mailbox.
		remainingDelay := turnDelay - time.Since(start)
		for remainingDelay > 0 {
			wait := pollDelay
			if wait <= 0 || wait > remainingDelay {
				wait = remainingDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

			d, err := store.PopDirection(ctx, id)
			if err != nil {
				return err
			}
			simulation.RequestDirection(d)

			remainingDelay = turnDelay - time.Since(start)
		}
	}
}

// restoreSimulation rebuilds the simulation for a game from its newest
// stored frame. A game with no frames yet starts fresh and has its opening
// frame pushed, so stored sequences always begin at turn zero.
func restoreSimulation(ctx context.Context, store controller.Store, game *controller.Game) (*sim.Simulation, error) {
	frames, err := store.ListGameFrames(ctx, game.ID, 1, -1)
	if err != nil {
		return nil, err
	}

	if len(frames) == 0 {
		s, err := sim.New(game.SimConfig())
		if err != nil {
			return nil, err
		}
		snap, err := s.Snapshot()
		if err != nil {
			return nil, err
		}
		if err := store.PushGameFrame(ctx, game.ID, controller.NewFrame(snap, nil)); err != nil {
			return nil, err
		}
		return s, nil
	}

	last := frames[len(frames)-1]
	return sim.Restore(game.SimConfig(), last.Snapshot(), last.GrowthPending())
}
