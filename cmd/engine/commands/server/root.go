// Package server holds the serving side of the engine cli: the api, the
// game workers and the store backend they share.
package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	promEnable = true
	promListen = ":9000"
)

// RootCmd runs the api and the game workers in one process on top of the
// configured backend.
var RootCmd = &cobra.Command{
	Use:    "server",
	Short:  "serve the gridsnake game engine",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		store, cleanup, err := openBackend()
		if err != nil {
			log.WithError(err).WithField("backend", backendName).Fatal("unable to open backend store")
		}
		defer cleanup()

		go runAPI(store)
		runWorkers(context.Background(), store)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", backendName, "store backend, as one of: [inmem, file, redis, sql]")
	RootCmd.PersistentFlags().StringVarP(&backendArgs, "backend-args", "a", backendArgs, "options to pass to the backend being used")
	RootCmd.PersistentFlags().BoolVar(&promEnable, "prometheus", promEnable, "enable prometheus metrics")
	RootCmd.PersistentFlags().StringVar(&promListen, "prometheus-listen", promListen, "prometheus http endpoint")

	// The combined command takes the api and worker tuning flags too.
	RootCmd.Flags().StringVarP(&apiListen, "listen", "l", apiListen, "api address to listen on")
	RootCmd.Flags().IntVarP(&workerThreads, "threads", "t", workerThreads, "worker processor threads, this is the amount of concurrent games a worker can process")
	RootCmd.Flags().DurationVarP(&workerPollInterval, "poll-interval", "p", workerPollInterval, "worker poll interval")

	RootCmd.AddCommand(apiCmd)
	RootCmd.AddCommand(workerCmd)
}

func prometheus() {
	if !promEnable {
		log.Info("prometheus exporter not enabled")
		return
	}

	log.WithField("addr", promListen).Info("starting prometheus exporter")
	go func() {
		r := http.NewServeMux()
		r.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(promListen, r); err != nil {
			log.WithError(err).Warn("prometheus failed to listen")
		}
	}()
}
