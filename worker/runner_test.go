package worker

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	"github.com/stretchr/testify/require"
)

func TestRunner_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("NoGame", func(t *testing.T) {
		s := controller.InMemStore()
		err := Runner(ctx, s, "")
		require.NotNil(t, err)
		require.Equal(t, controller.ErrNotFound, err)
	})

	t.Run("BadStoredFrame", func(t *testing.T) {
		s := controller.InMemStore()
		err := s.CreateGame(ctx, &controller.Game{
			ID:     "1",
			Width:  10,
			Height: 10,
			Status: controller.GameStatusRunning,
		}, []*controller.Frame{{
			Turn:    0,
			Cells:   []sim.Cell{{X: 50, Y: 50}, {X: 50, Y: 51}},
			Heading: sim.DirectionUp,
			Round:   sim.RoundStatePlaying,
		}})
		require.NoError(t, err)

		err = Runner(ctx, s, "1")
		require.NotNil(t, err)
		require.Contains(t, err.Error(), "outside")

		// A game that cannot be restored is flagged so workers stop
		// popping it.
		g, err := s.GetGame(ctx, "1")
		require.NoError(t, err)
		require.Equal(t, controller.GameStatusError, g.Status)
	})

	t.Run("BadConfig", func(t *testing.T) {
		s := controller.InMemStore()
		err := s.CreateGame(ctx, &controller.Game{
			ID:     "2",
			Width:  2,
			Height: 2,
			Status: controller.GameStatusRunning,
		}, nil)
		require.NoError(t, err)

		err = Runner(ctx, s, "2")
		require.NotNil(t, err)
	})
}

func TestRunner_TickBound(t *testing.T) {
	ctx := context.Background()
	s := controller.InMemStore()

	// No initial frames here, the runner pushes the opening frame itself.
	err := s.CreateGame(ctx, &controller.Game{
		ID:           "bound",
		Width:        10,
		Height:       10,
		Status:       controller.GameStatusRunning,
		Seed:         5,
		TickInterval: 1,
		MaxTurns:     3,
	}, nil)
	require.NoError(t, err)

	err = Runner(ctx, s, "bound")
	require.NoError(t, err)

	g, err := s.GetGame(ctx, "bound")
	require.NoError(t, err)
	require.Equal(t, controller.GameStatusComplete, g.Status)

	frames, err := s.ListGameFrames(ctx, "bound", 10, 0)
	require.NoError(t, err)
	require.Len(t, frames, 4, "opening frame plus one per tick")
	require.Equal(t, int64(0), frames[0].Turn)
	require.Equal(t, int64(3), frames[3].Turn)
}

func TestRunner_DirectionMailbox(t *testing.T) {
	ctx := context.Background()
	s := controller.InMemStore()

	g := startedGame(t, s, &controller.CreateRequest{
		Width:        10,
		Height:       10,
		Seed:         5,
		TickInterval: 1,
		MaxTurns:     1,
	})

	// Input sent before the worker picked the game up still reaches the
	// first tick.
	err := s.SetDirection(ctx, g.ID, sim.DirectionUp)
	require.NoError(t, err)

	err = Runner(ctx, s, g.ID)
	require.NoError(t, err)

	frames, err := s.ListGameFrames(ctx, g.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, sim.DirectionUp, frames[1].Heading)
	require.Equal(t, sim.Cell{X: 3, Y: 4}, frames[1].Cells[0])
}

func TestRunner_ResumesFromLastFrame(t *testing.T) {
	ctx := context.Background()
	s := controller.InMemStore()

	g := startedGame(t, s, &controller.CreateRequest{
		Width:        10,
		Height:       10,
		Seed:         11,
		TickInterval: 1,
		MaxTurns:     5,
	})

	err := Runner(ctx, s, g.ID)
	require.NoError(t, err)

	frames, err := s.ListGameFrames(ctx, g.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, frames, 6)

	// Restart the finished game, the runner resumes at the stored turn
	// instead of replaying from zero.
	err = s.SetGameStatus(ctx, g.ID, controller.GameStatusRunning)
	require.NoError(t, err)
	err = Runner(ctx, s, g.ID)
	require.NoError(t, err)

	frames, err = s.ListGameFrames(ctx, g.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, frames, 7)
	require.Equal(t, int64(6), frames[6].Turn)

	g2, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, controller.GameStatusComplete, g2.Status)
}

func TestRunner_Games(t *testing.T) {
	games := map[string]*controller.CreateRequest{
		"Simple": {
			Width:        5,
			Height:       5,
			Seed:         1,
			TickInterval: 1,
			MaxTurns:     10,
		},
		"LargerBoard": {
			Width:        25,
			Height:       25,
			Seed:         2,
			TickInterval: 1,
			MaxTurns:     25,
		},
		"TallNarrow": {
			Width:        4,
			Height:       12,
			Seed:         3,
			TickInterval: 1,
			MaxTurns:     15,
		},
	}
	ctx := context.Background()

	for key, req := range games {
		t.Run(key, func(t *testing.T) {
			s := controller.InMemStore()
			g := startedGame(t, s, req)

			err := Runner(ctx, s, g.ID)
			require.Nil(t, err)

			st, err := s.GetGame(ctx, g.ID)
			require.Nil(t, err)
			require.Equal(t, controller.GameStatusComplete, st.Status)

			frames, err := s.ListGameFrames(ctx, g.ID, 1, -1)
			require.Nil(t, err)
			require.Len(t, frames, 1)
			require.Equal(t, req.MaxTurns, frames[0].Turn)

			spew.Dump(frames[0])
		})
	}
}
