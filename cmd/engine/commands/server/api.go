package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/gridsnake/engine/api"
	"github.com/gridsnake/engine/controller"
	"github.com/spf13/cobra"
)

var (
	apiListen = ":3005"
)

func init() {
	apiCmd.Flags().StringVarP(&apiListen, "listen", "l", apiListen, "api address to listen on")
}

var apiCmd = &cobra.Command{
	Use:    "api",
	Short:  "runs the engine api against the configured backend",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		store, cleanup, err := openBackend()
		if err != nil {
			log.WithError(err).WithField("backend", backendName).Fatal("unable to open backend store")
		}
		defer cleanup()

		runAPI(store)
	},
}

func runAPI(store controller.Store) {
	srv := api.New(apiListen, store)
	log.WithField("listen", apiListen).Info("Gridsnake api serving")
	if err := srv.WaitForExit(); err != nil {
		log.WithError(err).
			WithField("listen", apiListen).
			Fatal("api server failed")
	}
}
