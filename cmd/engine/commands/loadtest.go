package commands

import (
	"encoding/json"
	"io/ioutil"
	"time"

	"github.com/gridsnake/engine/controller"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	games int
)

func init() {
	loadTestCmd.Flags().StringVarP(&configFile, "config", "c", "game-config.json", "specify the location of the game config file")
	loadTestCmd.Flags().IntVarP(&games, "num-games", "n", 10, "number of games to create and run for the load test")
}

type statusUpdate struct {
	id     string
	status controller.GameStatus
}

var loadTestCmd = &cobra.Command{
	Use:   "load-test",
	Short: "run a load test against the engine, using the provided game config",
	Args: func(c *cobra.Command, args []string) error {
		data, err := ioutil.ReadFile(configFile) // nolint: gosec
		if err != nil {
			return err
		}
		err = json.Unmarshal(data, cr)
		return err
	},
	Run: func(*cobra.Command, []string) {
		start := time.Now()
		ids := []string{}
		log.Info("Creating games")
		for i := 0; i < games; i++ {
			game := createGame()
			if game == nil {
				return
			}
			ids = append(ids, game.ID)
			startGame(game.ID)
		}

		statuses := map[string]controller.GameStatus{}
		updates := make(chan statusUpdate)
		for _, id := range ids {
			statuses[id] = ""
			go checkStatus(id, updates)
		}

		for s := range updates {
			log.WithFields(log.Fields{
				"id":     s.id,
				"status": s.status,
			}).Info("Game Status")
			statuses[s.id] = s.status

			done := true
			for _, s := range statuses {
				if s == controller.GameStatusComplete || s == controller.GameStatusError {
					continue
				}
				done = false
			}

			if done {
				log.WithFields(log.Fields{
					"elapsed": time.Since(start),
					"games":   games,
				}).Info("All games complete")
				return
			}
		}
	},
}

var updateFrequency = 300 * time.Millisecond

func checkStatus(id string, updates chan<- statusUpdate) {
	t := time.NewTicker(updateFrequency)
	for range t.C {
		sr := getStatus(id)
		if sr == nil || sr.Game == nil {
			continue
		}
		updates <- statusUpdate{id: id, status: sr.Game.Status}
		if sr.Game.Status == controller.GameStatusComplete || sr.Game.Status == controller.GameStatusError {
			t.Stop()
			return
		}
	}
}
