package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/gridsnake/engine/controller"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "creates a new game on the gridsnake engine",
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
		if game != nil {
			fmt.Printf(`{"id": "%s"}`+"\n", game.ID)
		}
	},
}

func createGame() *controller.Game {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	data, err := json.Marshal(cr)
	if err != nil {
		fmt.Println("unable to marshal request", err)
		return nil
	}
	buf := bytes.NewBuffer(data)
	resp, err := client.Post(fmt.Sprintf("%s/games", apiAddr), "application/json", buf)
	if err != nil {
		fmt.Println("error while posting to create endpoint", err)
		return nil
	}

	data, err = ioutil.ReadAll(resp.Body)
	if err != nil {
		fmt.Println("unable to read response body", err)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Println("create rejected:", string(data))
		return nil
	}

	game := &controller.Game{}
	err = json.Unmarshal(data, game)
	if err != nil {
		fmt.Println("unable to unmarshal create response")
		return nil
	}
	return game
}

var (
	configFile string
	cr         = &controller.CreateRequest{}
)

func init() {
	createCmd.Flags().StringVarP(&configFile, "config", "c", "game-config.json", "specify the location of the game config file")
}
