package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gridsnake/engine/sim"
)

var (
	// LockExpiry is the time after which a lock will expire.
	LockExpiry = 1 * time.Second
	// ErrNotFound is thrown when a game is not found.
	ErrNotFound = errors.New("controller: game not found")
	// ErrIsLocked is returned when a game is locked.
	ErrIsLocked = errors.New("controller: game is locked")
	// ErrInvalidSequence is returned when a frame is pushed out of turn
	// order.
	ErrInvalidSequence = errors.New("controller: invalid frame sequence")
)

// Store is the interface to the backend store. Games carry the hosted
// configuration, frames carry one simulation step each, and the direction
// mailbox hands the latest player input to whichever worker holds the game
// lock. The mailbox keeps one slot per game and the latest write wins,
// which matches how the simulation buffers input anyway.
type Store interface {
	Lock(ctx context.Context, key, token string) (string, error)
	Unlock(ctx context.Context, key, token string) error
	PopGameID(context.Context) (string, error)
	CreateGame(context.Context, *Game, []*Frame) error
	SetGameStatus(ctx context.Context, id string, status GameStatus) error
	GetGame(context.Context, string) (*Game, error)
	PushGameFrame(ctx context.Context, id string, f *Frame) error
	ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*Frame, error)
	SetDirection(ctx context.Context, id string, d sim.Direction) error
	PopDirection(ctx context.Context, id string) (sim.Direction, error)
}

// InMemStore returns an in memory implementation of the Store interface.
func InMemStore() Store {
	return &inmem{
		games:      map[string]*Game{},
		frames:     map[string][]*Frame{},
		directions: map[string]sim.Direction{},
		locks:      map[string]*lock{},
	}
}

type lock struct {
	token   string
	expires time.Time
}

type inmem struct {
	games      map[string]*Game
	frames     map[string][]*Frame
	directions map[string]sim.Direction
	locks      map[string]*lock
	lock       sync.Mutex
}

func (in *inmem) Lock(ctx context.Context, key, token string) (string, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	l, ok := in.locks[key]
	if ok {
		if l.token == token {
			l.expires = time.Now().Add(LockExpiry)
			return l.token, nil
		}
		if l.expires.Before(time.Now()) {
			delete(in.locks, key)
		} else {
			return "", ErrIsLocked
		}
	}
	if token == "" {
		token = fmt.Sprint(rand.Int63())
	}
	l = &lock{
		token:   token,
		expires: time.Now().Add(LockExpiry),
	}
	in.locks[key] = l
	return l.token, nil
}

func (in *inmem) isLocked(key string) bool {
	l, ok := in.locks[key]
	return ok && l.expires.After(time.Now())
}

func (in *inmem) Unlock(ctx context.Context, key, token string) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	l, ok := in.locks[key]
	if !ok {
		return nil
	}
	if l.token == token {
		delete(in.locks, key)
		return nil
	}
	if l.expires.Before(time.Now()) {
		delete(in.locks, key)
		return nil
	}
	return ErrIsLocked
}

func (in *inmem) PopGameID(ctx context.Context) (string, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	// Map iteration gives us the randomness here. Running games that are
	// not locked are fair game for any worker.
	for id, g := range in.games {
		if g.Status == GameStatusRunning && !in.isLocked(id) {
			return id, nil
		}
	}
	return "", ErrNotFound
}

func (in *inmem) CreateGame(ctx context.Context, g *Game, frames []*Frame) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	in.games[g.ID] = g
	in.frames[g.ID] = []*Frame{}
	for _, f := range frames {
		if err := in.pushFrameLocked(g.ID, f); err != nil {
			return err
		}
	}
	return nil
}

func (in *inmem) SetGameStatus(ctx context.Context, id string, status GameStatus) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	g, ok := in.games[id]
	if !ok {
		return ErrNotFound
	}
	g.Status = status
	return nil
}

func (in *inmem) GetGame(ctx context.Context, id string) (*Game, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	g, ok := in.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy the game so callers cannot upset internal state through the
	// returned pointer.
	clone := *g
	return &clone, nil
}

func (in *inmem) PushGameFrame(ctx context.Context, id string, f *Frame) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return ErrNotFound
	}
	return in.pushFrameLocked(id, f)
}

func (in *inmem) pushFrameLocked(id string, f *Frame) error {
	frames := in.frames[id]
	next := int64(0)
	if len(frames) > 0 {
		next = frames[len(frames)-1].Turn + 1
	}
	if f.Turn != next {
		return ErrInvalidSequence
	}
	in.frames[id] = append(frames, f)
	return nil
}

func (in *inmem) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*Frame, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return nil, ErrNotFound
	}
	frames := in.frames[id]

	// Negative offsets count back from the newest frame.
	if offset < 0 {
		offset = len(frames) + offset
		if offset < 0 {
			offset = 0
		}
	}
	if len(frames) == 0 || offset >= len(frames) {
		return nil, nil
	}
	if offset+limit >= len(frames) {
		limit = len(frames) - offset
	}
	return frames[offset : offset+limit], nil
}

func (in *inmem) SetDirection(ctx context.Context, id string, d sim.Direction) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return ErrNotFound
	}
	in.directions[id] = d
	return nil
}

func (in *inmem) PopDirection(ctx context.Context, id string) (sim.Direction, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return sim.DirectionUnset, ErrNotFound
	}
	d, ok := in.directions[id]
	if !ok {
		return sim.DirectionUnset, nil
	}
	delete(in.directions, id)
	return d, nil
}
