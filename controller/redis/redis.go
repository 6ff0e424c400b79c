package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis"
	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	"github.com/pkg/errors"
	"github.com/satori/go.uuid"
)

// Store is a redis backed implementation of controller.Store. Games and
// frames are stored as JSON, locks are plain keys with a TTL so redis
// expires them on its own.
type Store struct {
	client *redis.Client
}

// NewStore will create a new instance of an underlying redis client, so it
// should not be re-created across "threads".
// - connectURL see: github.com/go-redis/redis/options.go for URL specifics
// The underlying redis client will be immediately tested for connectivity,
// so don't call this until you know redis can connect.
func NewStore(connectURL string) (*Store, error) {
	o, err := redis.ParseURL(connectURL)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse redis URL")
	}

	client := redis.NewClient(o)

	// Validate it's connected
	err = client.Ping().Err()
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect")
	}

	return &Store{client: client}, nil
}

// Close closes the underlying redis client.
func (rs *Store) Close() error { return rs.client.Close() }

func gameKey(id string) string      { return "games:" + id }
func framesKey(id string) string    { return "frames:" + id }
func lockKey(id string) string      { return "locks:" + id }
func directionKey(id string) string { return "directions:" + id }

// Lock will lock a specific game, returning a token that must be used to
// write frames to the game.
func (rs *Store) Lock(ctx context.Context, key, token string) (string, error) {
	tkn := token
	if tkn == "" {
		tkn = uuid.NewV4().String()
	}

	ok, err := rs.client.SetNX(lockKey(key), tkn, controller.LockExpiry).Result()
	if err != nil {
		return "", errors.Wrap(err, "unable to acquire lock")
	}
	if ok {
		return tkn, nil
	}

	cur, err := rs.client.Get(lockKey(key)).Result()
	if err == redis.Nil {
		// The lock expired between the two calls, take it over.
		if err := rs.client.Set(lockKey(key), tkn, controller.LockExpiry).Err(); err != nil {
			return "", errors.Wrap(err, "unable to acquire lock")
		}
		return tkn, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "unable to read lock")
	}
	if cur != token {
		return "", controller.ErrIsLocked
	}

	// Re-locking with the right token pushes the expiry out.
	if err := rs.client.Set(lockKey(key), tkn, controller.LockExpiry).Err(); err != nil {
		return "", errors.Wrap(err, "unable to refresh lock")
	}
	return tkn, nil
}

// Unlock will unlock a game if it is locked and the token used to lock it
// is correct.
func (rs *Store) Unlock(ctx context.Context, key, token string) error {
	cur, err := rs.client.Get(lockKey(key)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "unable to read lock")
	}
	if cur != token {
		return controller.ErrIsLocked
	}
	return errors.Wrap(rs.client.Del(lockKey(key)).Err(), "unable to release lock")
}

// PopGameID returns a running game that no worker holds a lock on.
func (rs *Store) PopGameID(ctx context.Context) (string, error) {
	keys, err := rs.client.Keys(gameKey("*")).Result()
	if err != nil {
		return "", errors.Wrap(err, "unable to scan games")
	}
	for _, k := range keys {
		id := strings.TrimPrefix(k, gameKey(""))
		g, err := rs.GetGame(ctx, id)
		if err != nil {
			continue
		}
		if g.Status != controller.GameStatusRunning {
			continue
		}
		locked, err := rs.client.Exists(lockKey(id)).Result()
		if err != nil {
			return "", errors.Wrap(err, "unable to check lock")
		}
		if locked == 0 {
			return id, nil
		}
	}
	return "", controller.ErrNotFound
}

// CreateGame will insert a game with the given initial frames.
func (rs *Store) CreateGame(ctx context.Context, g *controller.Game, frames []*controller.Frame) error {
	data, err := json.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "unable to encode game")
	}
	if err := rs.client.Set(gameKey(g.ID), data, 0).Err(); err != nil {
		return errors.Wrap(err, "unable to store game")
	}
	if err := rs.client.Del(framesKey(g.ID)).Err(); err != nil {
		return errors.Wrap(err, "unable to reset frames")
	}
	for _, f := range frames {
		if err := rs.pushFrame(g.ID, f); err != nil {
			return err
		}
	}
	return nil
}

// SetGameStatus is used to set a specific game status.
func (rs *Store) SetGameStatus(ctx context.Context, id string, status controller.GameStatus) error {
	g, err := rs.GetGame(ctx, id)
	if err != nil {
		return err
	}
	g.Status = status
	data, err := json.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "unable to encode game")
	}
	return errors.Wrap(rs.client.Set(gameKey(id), data, 0).Err(), "unable to store game")
}

// GetGame will fetch the game.
func (rs *Store) GetGame(ctx context.Context, id string) (*controller.Game, error) {
	val, err := rs.client.Get(gameKey(id)).Result()
	if err == redis.Nil {
		return nil, controller.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to fetch game")
	}
	g := &controller.Game{}
	if err := json.Unmarshal([]byte(val), g); err != nil {
		return nil, errors.Wrap(err, "unable to decode game")
	}
	return g, nil
}

// PushGameFrame will push a game frame onto the list of frames.
func (rs *Store) PushGameFrame(ctx context.Context, id string, f *controller.Frame) error {
	n, err := rs.client.Exists(gameKey(id)).Result()
	if err != nil {
		return errors.Wrap(err, "unable to check game")
	}
	if n == 0 {
		return controller.ErrNotFound
	}
	return rs.pushFrame(id, f)
}

func (rs *Store) pushFrame(id string, f *controller.Frame) error {
	last, err := rs.client.LRange(framesKey(id), -1, -1).Result()
	if err != nil {
		return errors.Wrap(err, "unable to read frames")
	}
	next := int64(0)
	if len(last) > 0 {
		prev := &controller.Frame{}
		if err := json.Unmarshal([]byte(last[0]), prev); err != nil {
			return errors.Wrap(err, "unable to decode frame")
		}
		next = prev.Turn + 1
	}
	if f.Turn != next {
		return controller.ErrInvalidSequence
	}
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "unable to encode frame")
	}
	return errors.Wrap(rs.client.RPush(framesKey(id), data).Err(), "unable to push frame")
}

// ListGameFrames will list frames by an offset and limit, it supports
// negative offset.
func (rs *Store) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*controller.Frame, error) {
	n, err := rs.client.Exists(gameKey(id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to check game")
	}
	if n == 0 {
		return nil, controller.ErrNotFound
	}
	if limit <= 0 {
		return nil, nil
	}

	// Negative offsets count back from the newest frame.
	if offset < 0 {
		l, err := rs.client.LLen(framesKey(id)).Result()
		if err != nil {
			return nil, errors.Wrap(err, "unable to count frames")
		}
		offset = int(l) + offset
		if offset < 0 {
			offset = 0
		}
	}

	vals, err := rs.client.LRange(framesKey(id), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list frames")
	}
	var frames []*controller.Frame
	for _, v := range vals {
		f := &controller.Frame{}
		if err := json.Unmarshal([]byte(v), f); err != nil {
			return nil, errors.Wrap(err, "unable to decode frame")
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// SetDirection stores the latest requested heading for a game. The slot
// holds one value, a later write replaces it.
func (rs *Store) SetDirection(ctx context.Context, id string, d sim.Direction) error {
	n, err := rs.client.Exists(gameKey(id)).Result()
	if err != nil {
		return errors.Wrap(err, "unable to check game")
	}
	if n == 0 {
		return controller.ErrNotFound
	}
	return errors.Wrap(rs.client.Set(directionKey(id), string(d), 0).Err(), "unable to set direction")
}

// PopDirection takes the pending heading for a game, if any.
func (rs *Store) PopDirection(ctx context.Context, id string) (sim.Direction, error) {
	n, err := rs.client.Exists(gameKey(id)).Result()
	if err != nil {
		return sim.DirectionUnset, errors.Wrap(err, "unable to check game")
	}
	if n == 0 {
		return sim.DirectionUnset, controller.ErrNotFound
	}
	val, err := rs.client.Get(directionKey(id)).Result()
	if err == redis.Nil {
		return sim.DirectionUnset, nil
	}
	if err != nil {
		return sim.DirectionUnset, errors.Wrap(err, "unable to read direction")
	}
	if err := rs.client.Del(directionKey(id)).Err(); err != nil {
		return sim.DirectionUnset, errors.Wrap(err, "unable to clear direction")
	}
	return sim.Direction(val), nil
}
