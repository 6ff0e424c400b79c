// Package worker provides the actual running of games. It is the core of the
// engine and game logic. Workers pull runnable games from the store, hold
// their locks and advance the simulation tick by tick.
package worker

import (
	"context"
	"time"

	"github.com/gridsnake/engine/config"
	"github.com/gridsnake/engine/controller"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Worker is the worker interface. It wraps a main RunGame function which is
// where all of the game logic should live.
type Worker struct {
	Store             controller.Store
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	RunGame           func(ctx context.Context, store controller.Store, id string) error
}

// Run will run the worker in a loop. Popping is rate limited so a fleet of
// idle workers does not hammer the store.
func (w *Worker) Run(ctx context.Context, workerID int) {
	limiter := rate.NewLimiter(config.PopRate, config.PopBurstRate)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if err := w.run(ctx, workerID); err != nil {
			if err != controller.ErrNotFound {
				log.Printf("[%d] run failed: %v", workerID, err)
			}

			select {
			case <-time.After(w.PollInterval):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) run(ctx context.Context, workerID int) error {
	// Pop an item of work.
	id, err := w.Store.PopGameID(ctx)
	if err != nil {
		return err
	}

	// Attempt to get the lock initially.
	token, err := w.Store.Lock(ctx, id, "")
	if err != nil {
		return err
	}

	log.Printf("[%d] acquired lock %s token=%s", workerID, id, token)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		log.Printf("[%d] unlocking %s", workerID, id)
		if err := w.Store.Unlock(ctx, id, token); err != nil {
			log.Printf("[%d] unlock %s failed: %v", workerID, id, err)
		}
	}()

	// Hold the lock, heartbeating every HeartbeatInterval.
	go func() {
		t := time.NewTicker(w.HeartbeatInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				_, err := w.Store.Lock(ctx, id, token)
				if err != nil {
					log.Printf("[%d] lock expired during heartbeat %v", workerID, err)
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Perform the actual work, this should respect context and Done() rules.
	// The heartbeat above holds the game lock for as long as the game runs.
	run := w.RunGame
	if run == nil {
		run = Runner
	}
	return run(ctx, w.Store, id)
}
