// Package testsuite holds a conformance suite that every store backend
// must pass. Backend packages call Suite from their own tests with a
// pretest hook that clears shared state between cases.
package testsuite

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"
)

func testStoreLock(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()

	ctx := context.Background()

	// Lock random key.
	tok, err := s.Lock(ctx, key, "")
	require.Nil(t, err)
	require.NotEmpty(t, tok)

	// Lock with valid token, no error same token returned.
	tok2, err := s.Lock(ctx, key, tok)
	require.Nil(t, err)
	require.Equal(t, tok, tok2)

	// Unlock without valid token returns error.
	err = s.Unlock(ctx, key, "")
	require.Error(t, err)

	// Unlock with valid token no error.
	err = s.Unlock(ctx, key, tok)
	require.Nil(t, err)

	// Unlock where lock doesn't exist returns no error.
	err = s.Unlock(ctx, key+"-missing", "")
	require.Nil(t, err)
}

func testStoreLockExpiry(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Negative expiry, will always be expired.
	controller.LockExpiry = -10 * time.Second

	// Lock random key.
	tok, err := s.Lock(ctx, key, "")
	require.Nil(t, err)
	require.NotEmpty(t, tok)

	// Lock (with token) has expired.
	tok2, err := s.Lock(ctx, key, tok)
	require.Nil(t, err)
	require.Equal(t, tok, tok2)

	// Unlock (no token) has expired.
	err = s.Unlock(ctx, key, "")
	require.NoError(t, err)

	// Lock (no token) has expired.
	_, err = s.Lock(ctx, key, "")
	require.Nil(t, err)

	// Unlock (no token) has expired.
	err = s.Unlock(ctx, key, "")
	require.Nil(t, err)

	// Reset.
	controller.LockExpiry = 1 * time.Second
}

func testStoreGames(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Create and fetch a game.
	err := s.CreateGame(ctx, &controller.Game{
		ID: key, Status: controller.GameStatusRunning}, nil)
	require.Nil(t, err)
	g, err := s.GetGame(ctx, key)
	require.Nil(t, err)
	require.Equal(t, key, g.ID)

	// NotFound error thrown.
	_, err = s.GetGame(ctx, key+"-missing")
	require.Equal(t, controller.ErrNotFound, err)

	// Pop game can find it.
	id, err := s.PopGameID(ctx)
	require.Nil(t, err)
	require.Equal(t, key, id)

	// Lock test key, cannot pop.
	_, err = s.Lock(ctx, key, "")
	require.Nil(t, err)
	_, err = s.PopGameID(ctx)
	require.NotNil(t, err)
}

func testStoreGameStatus(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Create a stopped game, workers must not see it.
	err := s.CreateGame(ctx, &controller.Game{
		ID: key, Status: controller.GameStatusStopped}, nil)
	require.Nil(t, err)
	_, err = s.PopGameID(ctx)
	require.NotNil(t, err)

	// Set game to running.
	err = s.SetGameStatus(ctx, key, controller.GameStatusRunning)
	require.Nil(t, err)

	// Pop game can find it.
	id, err := s.PopGameID(ctx)
	require.Nil(t, err)
	require.Equal(t, key, id)

	// Set game to error.
	err = s.SetGameStatus(ctx, key, controller.GameStatusError)
	require.Nil(t, err)

	// Cannot pop.
	_, err = s.PopGameID(ctx)
	require.NotNil(t, err)
}

func testStoreGameFrames(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Create and fetch a game.
	err := s.CreateGame(ctx, &controller.Game{
		ID: key, Status: controller.GameStatusRunning}, nil)
	require.Nil(t, err)
	g, err := s.GetGame(ctx, key)
	require.Nil(t, err)
	require.Equal(t, key, g.ID)

	// Read game frames, too high offset.
	frames, err := s.ListGameFrames(ctx, key, 10, 100)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))

	// Read game frames, 0 offset.
	frames, err = s.ListGameFrames(ctx, key, 10, 0)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))

	// Push a game frame.
	err = s.PushGameFrame(ctx, key, &controller.Frame{})
	require.Nil(t, err)

	// Read the game frames.
	frames, err = s.ListGameFrames(ctx, key, 1, 0)
	require.Nil(t, err)
	require.Equal(t, 1, len(frames))

	// Out of order pushes are rejected.
	err = s.PushGameFrame(ctx, key, &controller.Frame{Turn: 7})
	require.Equal(t, controller.ErrInvalidSequence, err)

	// Negative offsets read from the newest frame backwards.
	err = s.PushGameFrame(ctx, key, &controller.Frame{Turn: 1})
	require.Nil(t, err)
	frames, err = s.ListGameFrames(ctx, key, 1, -1)
	require.Nil(t, err)
	require.Equal(t, 1, len(frames))
	require.Equal(t, int64(1), frames[0].Turn)

	// Read game frames that don't exist.
	frames, err = s.ListGameFrames(ctx, key+"-missing", 1, 0)
	require.Equal(t, controller.ErrNotFound, err)
	require.Equal(t, 0, len(frames))

	// Read the game frames, too high offset.
	frames, err = s.ListGameFrames(ctx, key, 10, 100)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))
}

func testStoreDirections(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	err := s.CreateGame(ctx, &controller.Game{
		ID: key, Status: controller.GameStatusRunning}, nil)
	require.Nil(t, err)

	// Empty mailbox reads as unset.
	d, err := s.PopDirection(ctx, key)
	require.Nil(t, err)
	require.Equal(t, sim.DirectionUnset, d)

	// Latest write wins.
	err = s.SetDirection(ctx, key, sim.DirectionUp)
	require.Nil(t, err)
	err = s.SetDirection(ctx, key, sim.DirectionRight)
	require.Nil(t, err)
	d, err = s.PopDirection(ctx, key)
	require.Nil(t, err)
	require.Equal(t, sim.DirectionRight, d)

	// Popping consumes the slot.
	d, err = s.PopDirection(ctx, key)
	require.Nil(t, err)
	require.Equal(t, sim.DirectionUnset, d)

	// Unknown games are rejected.
	err = s.SetDirection(ctx, key+"-missing", sim.DirectionUp)
	require.Equal(t, controller.ErrNotFound, err)
	_, err = s.PopDirection(ctx, key+"-missing")
	require.Equal(t, controller.ErrNotFound, err)
}

func testStoreConcurrentWriters(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Create and fetch a game.
	err := s.CreateGame(ctx,
		&controller.Game{ID: key, Status: controller.GameStatusRunning}, nil)
	require.Nil(t, err)

	var ok uint32 // How many got the lock.
	var wg sync.WaitGroup
	wg.Add(20)

	for i := 0; i < 20; i++ {
		go func() {
			// Lock key, push allowed.
			_, errl := s.Lock(ctx, key, "")
			// If locked, push should be allowed. If not locked, push not
			// allowed.
			if errl == nil {
				atomic.AddUint32(&ok, 1)
			}
			wg.Done()
		}()
	}

	wg.Wait()

	require.Equal(t, uint32(1), ok)
}

// Suite will execute the store testsuite.
func Suite(t *testing.T, s controller.Store, pretest func()) {
	s = controller.InstrumentStore(s)
	t.Run("Lock", func(t *testing.T) { pretest(); testStoreLock(t, s) })
	t.Run("LockExpiry", func(t *testing.T) { pretest(); testStoreLockExpiry(t, s) })
	t.Run("Games", func(t *testing.T) { pretest(); testStoreGames(t, s) })
	t.Run("GameStatus", func(t *testing.T) { pretest(); testStoreGameStatus(t, s) })
	t.Run("GameFrames", func(t *testing.T) { pretest(); testStoreGameFrames(t, s) })
	t.Run("Directions", func(t *testing.T) { pretest(); testStoreDirections(t, s) })
	t.Run("ConcurrentWriters", func(t *testing.T) { pretest(); testStoreConcurrentWriters(t, s) })
}
