package server

import (
	"context"
	"sync"
	"time"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/worker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	workerThreads      = 10
	workerPollInterval = 1 * time.Second
	// workerHeartbeat re-locks held games well inside the lock expiry.
	workerHeartbeat = 300 * time.Millisecond
)

func init() {
	workerCmd.Flags().IntVarP(&workerThreads, "threads", "t", workerThreads, "worker processor threads, this is the amount of concurrent games a worker can process")
	workerCmd.Flags().DurationVarP(&workerPollInterval, "poll-interval", "p", workerPollInterval, "worker poll interval")
}

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "runs engine workers against the configured backend",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		store, cleanup, err := openBackend()
		if err != nil {
			log.WithError(err).WithField("backend", backendName).Fatal("unable to open backend store")
		}
		defer cleanup()

		runWorkers(context.Background(), store)
	},
}

func runWorkers(ctx context.Context, store controller.Store) {
	w := &worker.Worker{
		Store:             store,
		PollInterval:      workerPollInterval,
		HeartbeatInterval: workerHeartbeat,
		RunGame:           worker.Runner,
	}

	wg := &sync.WaitGroup{}
	wg.Add(workerThreads)

	for i := 0; i < workerThreads; i++ {
		go func(i int) {
			log.WithField("worker", i).Info("Gridsnake worker starting")
			w.Run(ctx, i)
			wg.Done()
		}(i)
	}
	wg.Wait()
}
