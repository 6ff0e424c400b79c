package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gridsnake/engine/api"
	"github.com/gridsnake/engine/controller"
)

type client struct {
	apiURL string
	client *http.Client
}

func (c *client) beginGame(cr *controller.CreateRequest) (string, error) {
	var gameID string

	{
		data, err := json.Marshal(cr)
		if err != nil {
			return "", err
		}
		buf := bytes.NewBuffer(data)
		resp, err := c.client.Post(fmt.Sprintf("%s/games", c.apiURL), "application/json", buf)
		if err != nil {
			return "", err
		}
		game := &controller.Game{}
		err = json.NewDecoder(resp.Body).Decode(game)
		if cErr := resp.Body.Close(); err == nil && cErr != nil {
			return "", cErr
		}
		if err != nil {
			return "", err
		}
		if game.ID == "" {
			return "", fmt.Errorf("create returned no game id, status %d", resp.StatusCode)
		}
		gameID = game.ID
	}

	{
		resp, err := c.client.Post(fmt.Sprintf("%s/games/%s/start", c.apiURL, gameID), "application/json", nil)
		if err != nil {
			return "", err
		}
		err = resp.Body.Close()
		if err != nil {
			return "", err
		}
	}

	return gameID, nil
}

func (c *client) gameStatus(gameID string) (*api.StatusResponse, *api.FramesResponse, error) {
	st := &api.StatusResponse{}
	frames := &api.FramesResponse{}

	{
		resp, err := c.client.Get(fmt.Sprintf("%s/games/%s", c.apiURL, gameID))
		if err != nil {
			return nil, nil, err
		}
		err = json.NewDecoder(resp.Body).Decode(st)
		if err != nil {
			return nil, nil, err
		}
		err = resp.Body.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	{
		resp, err := c.client.Get(fmt.Sprintf("%s/games/%s/frames?limit=1000", c.apiURL, gameID))
		if err != nil {
			return nil, nil, err
		}
		err = json.NewDecoder(resp.Body).Decode(frames)
		if err != nil {
			return nil, nil, err
		}
		err = resp.Body.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	return st, frames, nil
}

func (c *client) postMove(gameID, direction string) error {
	data, err := json.Marshal(&api.MoveRequest{Direction: direction})
	if err != nil {
		return err
	}
	resp, err := c.client.Post(fmt.Sprintf("%s/games/%s/move", c.apiURL, gameID), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	if err := resp.Body.Close(); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("move rejected with status %d", resp.StatusCode)
	}
	return nil
}
