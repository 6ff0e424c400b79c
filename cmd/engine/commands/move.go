package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/gridsnake/engine/api"
	"github.com/spf13/cobra"
)

func init() {
	moveCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to steer")
}

var moveCmd = &cobra.Command{
	Use:   "move [direction]",
	Short: "sends a direction input to a game on the gridsnake engine",
	Args: func(c *cobra.Command, args []string) error {
		if len(gameID) == 0 {
			return errors.New("game id is required")
		}
		if len(args) != 1 {
			return errors.New("a direction is required, one of: up, down, left, right")
		}
		return nil
	},
	Run: func(c *cobra.Command, args []string) {
		client := &http.Client{
			Timeout: 5 * time.Second,
		}

		data, err := json.Marshal(&api.MoveRequest{Direction: args[0]})
		if err != nil {
			fmt.Println("unable to marshal request", err)
			return
		}
		resp, err := client.Post(fmt.Sprintf("%s/games/%s/move", apiAddr, gameID), "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Println("error while posting to move endpoint", err)
			return
		}

		data, err = ioutil.ReadAll(resp.Body)
		if err != nil {
			fmt.Println("unable to read response body", err)
			return
		}

		fmt.Println(string(data))
	},
}
