package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gridsnake/engine/controller"
	"github.com/spf13/cobra"
)

// initialFrameWait bounds how long a watcher waits for the first frame
// before declaring the stream dead.
const initialFrameWait = 5 * time.Second

func init() {
	watchCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to watch")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "streams a game's frames from the gridsnake engine as JSON lines",
	Args: func(c *cobra.Command, args []string) error {
		if len(gameID) == 0 {
			return errors.New("game id is required")
		}
		return nil
	},
	Run: func(*cobra.Command, []string) {
		if err := watchGame(gameID); err != nil {
			fmt.Println("error while watching game:", err)
			os.Exit(1)
		}
	},
}

func watchGame(id string) error {
	frames := &frameHolder{}
	first := frames.initialFrame()

	u := url.URL{Scheme: "ws", Host: strings.Replace(apiAddr, "http://", "", 1), Path: fmt.Sprintf("/socket/%s", id)}
	log.Printf("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if err := c.Close(); err != nil {
				log.Printf("failure to close websocket connection: %v", err)
			}
		}()

		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				if !strings.Contains(err.Error(), "close 1000 (normal)") {
					log.Println("read:", err)
				}
				return
			}

			switch mt {
			case websocket.TextMessage:
				frame := &controller.Frame{}
				if err := json.Unmarshal(message, frame); err != nil {
					log.Println("unmarshal frame:", err)
					return
				}
				frames.append(frame)
			case websocket.CloseMessage:
				return
			default:
				log.Println("unhandled message type:", mt)
			}
		}
	}()

	select {
	case <-first:
	case <-done:
		return errors.New("stream closed before the first frame")
	case <-time.After(initialFrameWait):
		return errors.New("unable to find initial frame for game")
	}

	// Print frames in arrival order, draining whatever the reader has
	// collected before deciding the stream is over.
	enc := json.NewEncoder(os.Stdout)
	for i := 0; ; {
		if f := frames.get(i); f != nil {
			if err := enc.Encode(f); err != nil {
				return err
			}
			i++
			continue
		}

		select {
		case <-done:
			if frames.count() <= i {
				return nil
			}
		case <-time.After(20 * time.Millisecond):
		}
	}
}
