package main

import (
	"context"
	"flag"
	"math/rand"
	"sync"
	"time"

	"github.com/gridsnake/engine/api"
	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/worker"
	log "github.com/sirupsen/logrus"
)

func init() { rand.Seed(time.Now().Unix()) }

// The root binary is the single process engine: an in memory store shared
// by the api and a pool of workers. The cmd/engine binary is the full
// operator surface with backend selection.
func main() {
	var (
		apiAddr string
		workers int
	)
	flag.StringVar(&apiAddr, "api-listen", ":3005", "api listen address")
	flag.IntVar(&workers, "workers", 10, "worker count")
	flag.Parse()

	store := controller.InstrumentStore(controller.InMemStore())

	go func() {
		srv := api.New(apiAddr, store)
		log.Infof("api listening on %s", apiAddr)
		if err := srv.WaitForExit(); err != nil {
			log.Fatalf("api failed to serve on (%s): %v", apiAddr, err)
		}
	}()

	w := &worker.Worker{
		Store:             store,
		PollInterval:      1 * time.Second,
		HeartbeatInterval: 300 * time.Millisecond,
	}

	ctx := context.Background()
	wg := &sync.WaitGroup{}
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			w.Run(ctx, i)
			wg.Done()
		}(i)
	}
	wg.Wait()
}
