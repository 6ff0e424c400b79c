package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	startCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to start")
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "starts a created game on the gridsnake engine",
	Args: func(c *cobra.Command, args []string) error {
		if len(gameID) == 0 {
			return errors.New("game id is required")
		}
		return nil
	},
	Run: func(*cobra.Command, []string) {
		startGame(gameID)
	},
}

func startGame(id string) bool {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Post(fmt.Sprintf("%s/games/%s/start", apiAddr, id), "application/json", &bytes.Buffer{})
	if err != nil {
		fmt.Println("error while posting to start endpoint", err)
		return false
	}

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		fmt.Println("unable to read response body", err)
		return false
	}

	fmt.Println(string(data))
	return resp.StatusCode == http.StatusOK
}
