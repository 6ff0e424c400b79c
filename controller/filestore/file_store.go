package filestore

import (
	"context"
	"os/user"
	"path"
	"sync"
	"time"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

func defaultDir() string {
	return path.Join(homeDir(), ".gridsnake/games")
}

func homeDir() string {
	usr, err := user.Current()
	if err != nil {
		return "."
	}
	return usr.HomeDir
}

// NewFileStore returns a file based store implementation (1 file per game).
func NewFileStore(directory string) controller.Store {
	if directory == "" {
		directory = defaultDir()
	}

	return &fileStore{
		games:      map[string]*controller.Game{},
		frames:     map[string][]*controller.Frame{},
		directions: map[string]sim.Direction{},
		writers:    map[string]writer{},
		locks:      map[string]*lock{},
		directory:  directory,
	}
}

type lock struct {
	token   string
	expires time.Time
}

type fileStore struct {
	games      map[string]*controller.Game
	frames     map[string][]*controller.Frame
	directions map[string]sim.Direction
	writers    map[string]writer
	locks      map[string]*lock
	lock       sync.Mutex
	directory  string
}

// closeGame removes the game from in-memory cache and closes the handle to its
// file. Should be called when game is complete.
func (fs *fileStore) closeGame(id string) {
	if w, ok := fs.writers[id]; ok {
		err := w.Close()
		if err != nil {
			log.WithError(err).Error("Error while closing file writer")
		}
	}
	delete(fs.games, id)
	delete(fs.frames, id)
	delete(fs.directions, id)
	delete(fs.writers, id)
}

func (fs *fileStore) Lock(ctx context.Context, key, token string) (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	now := time.Now()

	l, ok := fs.locks[key]
	if ok {
		// We have a lock token, if it's expired just delete it and continue as
		// if nothing happened.
		if l.expires.Before(now) {
			delete(fs.locks, key)
		} else {
			// If the token is not expired and matched our active token, let's
			// just bump the expiration.
			if l.token == token {
				l.expires = time.Now().Add(controller.LockExpiry)
				return l.token, nil
			}
			// If it's not our token, we should throw an error.
			return "", controller.ErrIsLocked
		}
	}
	if token == "" {
		token = uuid.NewV4().String()
	}
	// Lock was expired or non-existant, create a new token.
	l = &lock{
		token:   token,
		expires: now.Add(controller.LockExpiry),
	}
	fs.locks[key] = l
	return l.token, nil
}

func (fs *fileStore) isLocked(key string) bool {
	l, ok := fs.locks[key]
	return ok && l.expires.After(time.Now())
}

func (fs *fileStore) Unlock(ctx context.Context, key, token string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	now := time.Now()

	l, ok := fs.locks[key]
	// No lock? Don't care.
	if !ok {
		return nil
	}
	// We have a lock that matches our token, even if it's expired we are safe
	// to remove it. If it's expired, remove it as well.
	if l.expires.Before(now) || l.token == token {
		delete(fs.locks, key)
		return nil
	}
	// The token is valid and doesn't match our lock.
	return controller.ErrIsLocked
}

// PopGameID gives the next running game. Since running games should always be
// cached in memory it is not necessary to scan file system.
func (fs *fileStore) PopGameID(ctx context.Context) (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	// For every game we need to make sure it's active and is not locked before
	// returning it. We get randomness due to go's built in random map.
	for id, g := range fs.games {
		if !fs.isLocked(id) && g.Status == controller.GameStatusRunning {
			return id, nil
		}
	}
	return "", controller.ErrNotFound
}

func (fs *fileStore) CreateGame(ctx context.Context, g *controller.Game, frames []*controller.Frame) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.games[g.ID] = g
	fs.frames[g.ID] = []*controller.Frame{}
	return fs.appendFrames(g.ID, frames)
}

func (fs *fileStore) SetGameStatus(ctx context.Context, id string, status controller.GameStatus) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	game, err := fs.requireGame(id)
	if err != nil {
		return err
	}

	game.Status = status
	if status != controller.GameStatusRunning {
		fs.closeGame(id)
	}
	return nil
}

func (fs *fileStore) PushGameFrame(ctx context.Context, id string, f *controller.Frame) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.appendFrame(id, f)
}

func (fs *fileStore) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*controller.Frame, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.requireGame(id); err != nil {
		return nil, err
	}
	frames, err := fs.requireFrames(id)
	if err != nil {
		return nil, err
	}

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

func (fs *fileStore) GetGame(ctx context.Context, id string) (*controller.Game, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	g, err := fs.requireGame(id)
	if err != nil {
		return nil, err
	}

	// Clone the game, since this could be modified after this is returned
	// and upset internal state inside the store.
	clone := *g
	return &clone, nil
}

// SetDirection stores the latest requested heading for a game. The mailbox
// is transient, it never makes it into the archive file.
func (fs *fileStore) SetDirection(ctx context.Context, id string, d sim.Direction) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.requireGame(id); err != nil {
		return err
	}
	fs.directions[id] = d
	return nil
}

// PopDirection takes the pending heading for a game, if any.
func (fs *fileStore) PopDirection(ctx context.Context, id string) (sim.Direction, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.requireGame(id); err != nil {
		return sim.DirectionUnset, err
	}
	d, ok := fs.directions[id]
	if !ok {
		return sim.DirectionUnset, nil
	}
	delete(fs.directions, id)
	return d, nil
}

func (fs *fileStore) requireHandle(id string, mustBeNew bool) (writer, error) {
	if w, ok := fs.writers[id]; ok {
		return w, nil
	}

	handle, err := openFileWriter(fs.directory, id, mustBeNew)
	if err != nil {
		return nil, err
	}

	fs.writers[id] = handle
	return handle, nil
}

func (fs *fileStore) requireGame(id string) (*controller.Game, error) {
	// Do nothing if game already loaded.
	if g, ok := fs.games[id]; ok {
		return g, nil
	}

	// Load the game info header from file.
	g, err := ReadGameInfo(fs.directory, id)
	if err != nil {
		return nil, err
	}

	fs.games[id] = g
	return g, nil
}

func (fs *fileStore) requireFrames(id string) ([]*controller.Frame, error) {
	// Do nothing if frames already loaded.
	if frames, ok := fs.frames[id]; ok {
		return frames, nil
	}

	// Load frames from file.
	frames, err := ReadGameFrames(fs.directory, id)
	if err != nil {
		return nil, err
	}

	fs.frames[id] = frames
	return frames, nil
}

func (fs *fileStore) appendFrame(id string, f *controller.Frame) error {
	game, err := fs.requireGame(id)
	if err != nil {
		return err
	}
	frames, err := fs.requireFrames(id)
	if err != nil {
		return err
	}

	next := int64(0)
	if len(frames) > 0 {
		next = frames[len(frames)-1].Turn + 1
	}
	if f.Turn != next {
		return controller.ErrInvalidSequence
	}

	handle, err := fs.requireHandle(id, len(frames) == 0)
	if err != nil {
		return err
	}

	// If this is the first frame, then first write the game info header.
	if len(frames) == 0 {
		if err := writeGameInfo(handle, game); err != nil {
			return err
		}
	}

	// Add frame to in-memory cache
	fs.frames[id] = append(fs.frames[id], f)

	// Add frame to archive file
	return writeFrame(handle, f)
}

func (fs *fileStore) appendFrames(gameID string, frames []*controller.Frame) error {
	for _, f := range frames {
		if err := fs.appendFrame(gameID, f); err != nil {
			return err
		}
	}
	return nil
}

func getFilePath(directory string, id string) string {
	return path.Join(directory, id) + ".gs"
}
