package commands

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "game-config.json", "specify the location of the game config file")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "creates, starts and watches a game in one shot",
	Args: func(c *cobra.Command, args []string) error {
		data, err := ioutil.ReadFile(configFile) // nolint: gosec
		if err != nil {
			return err
		}
		err = json.Unmarshal(data, cr)
		return err
	},
	Run: func(*cobra.Command, []string) {
		game := createGame()
		if game == nil {
			os.Exit(1)
		}
		if !startGame(game.ID) {
			os.Exit(1)
		}
		if err := watchGame(game.ID); err != nil {
			fmt.Println("error while watching game:", err)
			os.Exit(1)
		}
	},
}
