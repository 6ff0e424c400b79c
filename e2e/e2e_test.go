package e2e

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gridsnake/engine/api"
	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	"github.com/gridsnake/engine/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiURL = "http://127.0.0.1:3005"

func newClient(url string) *client {
	return &client{
		apiURL: url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Every game runs at a fast tick so the suite stays quick. MaxTurns gives
// each one a natural end for the status polling to find.
var games = map[string]*controller.CreateRequest{
	"Simple": {
		Width:        5,
		Height:       5,
		Seed:         11,
		TickInterval: 20,
		MaxTurns:     30,
	},
	"Default": {
		TickInterval: 20,
		MaxTurns:     25,
	},
	"LargerBoard": {
		Width:        40,
		Height:       40,
		Seed:         3,
		TickInterval: 20,
		MaxTurns:     50,
	},
}

func TestMain(m *testing.M) {
	enableE2e := flag.Bool("enable-e2e", false, "enable e2e tests")
	flag.Parse()

	if !*enableE2e {
		os.Exit(0)
		return
	}

	// The whole engine runs in process: one shared store, the api on a
	// loopback port and a small worker pool ticking the games.
	store := controller.InstrumentStore(controller.InMemStore())

	go func() {
		srv := api.New(":3005", store)
		if err := srv.WaitForExit(); err != nil {
			fmt.Printf("api server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	w := &worker.Worker{
		Store:             store,
		PollInterval:      50 * time.Millisecond,
		HeartbeatInterval: 300 * time.Millisecond,
	}
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 4; i++ {
		go w.Run(ctx, i)
	}

	code := m.Run()
	cancel()
	os.Exit(code)
}

func waitForAPI(t *testing.T) {
	for i := 0; i < 10; i++ {
		if _, err := http.Get(apiURL); err == nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatal("api never came up")
}

func Test(t *testing.T) {
	const (
		multiplier   = 3
		waitTicks    = 60
		waitInterval = 250 * time.Millisecond
	)

	waitForAPI(t)
	c := newClient(apiURL)

	for i := 0; i < multiplier; i++ {
		for name, game := range games {
			game := game
			t.Run(fmt.Sprintf("%s#%d", name, i), func(t *testing.T) {
				t.Parallel()

				id, err := c.beginGame(game)
				if !assert.Nil(t, err) {
					return
				}

				var st *api.StatusResponse
				var frames *api.FramesResponse
				for i := 0; i < waitTicks; i++ {
					time.Sleep(waitInterval)
					st, frames, err = c.gameStatus(id)
					if !assert.Nil(t, err) {
						return
					}

					if st.Game.Status == controller.GameStatusComplete {
						t.Logf("game finished id=%s turns=%d frames=%d", id, st.LastFrame.Turn, len(frames.Frames))
						assert.Equal(t, game.MaxTurns, st.LastFrame.Turn)
						if !assert.Equal(t, int(st.LastFrame.Turn)+1, len(frames.Frames)) {
							spew.Dump(frames.Frames)
						}
						for i, f := range frames.Frames {
							assert.Equal(t, i, int(f.Turn))
						}
						return
					}
				}

				spew.Dump(st)
				t.Errorf("test failed after: %v", time.Duration(waitTicks)*waitInterval)
			})
		}
	}
}

func TestSteering(t *testing.T) {
	waitForAPI(t)
	c := newClient(apiURL)

	// Tall enough that eight upward steps never reach the wall.
	id, err := c.beginGame(&controller.CreateRequest{
		Width:        10,
		Height:       15,
		Seed:         21,
		TickInterval: 100,
		MaxTurns:     8,
	})
	require.NoError(t, err)
	require.NoError(t, c.postMove(id, "up"))

	deadline := time.Now().Add(30 * time.Second)
	for {
		st, _, err := c.gameStatus(id)
		require.NoError(t, err)

		if st.Game.Status == controller.GameStatusComplete {
			// One accepted input and no reversals after it, the snake
			// ends the game heading up.
			assert.Equal(t, sim.DirectionUp, st.LastFrame.Heading)
			assert.Equal(t, int64(8), st.LastFrame.Turn)
			return
		}
		if time.Now().After(deadline) {
			spew.Dump(st)
			t.Fatal("game never completed")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
