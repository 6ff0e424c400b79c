package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gridsnake/engine/controller"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// framePollInterval is how often an open socket checks the store for
	// frames beyond the ones it has already pushed.
	framePollInterval = 50 * time.Millisecond
	// socketFramePage bounds how many frames one store read pulls while
	// a watcher catches up on history.
	socketFramePage = 100
)

var upgrader = websocket.Upgrader{
	// Cross origin pages reach the rest of the api through cors, the
	// socket gets the same treatment.
	CheckOrigin: func(*http.Request) bool { return true },
}

var errWatcherGone = errors.New("api: watcher went away")

// socket streams a game's stored frames over a websocket, oldest first,
// then follows the store until the game completes. The stream ends with a
// normal close so watchers can tell "game over" from a dropped link.
func (s *Server) socket(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	if _, err := s.store.GetGame(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).WithField("game", id).Info("websocket upgrade failed")
		return
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.WithError(err).Info("unable to close websocket")
		}
	}()

	// Watchers never send frames back. The read side only tells us when
	// the peer goes away, the request context does not fire for hijacked
	// connections.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.streamFrames(r.Context(), gone, c, id); err != nil {
		log.WithError(err).WithField("game", id).Info("frame stream ended")
		return
	}

	err = c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		log.WithError(err).WithField("game", id).Info("unable to close frame stream")
	}
}

func (s *Server) streamFrames(ctx context.Context, gone <-chan struct{}, c *websocket.Conn, id string) error {
	offset := 0
	for {
		frames, err := s.store.ListGameFrames(ctx, id, socketFramePage, offset)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			if err := c.WriteJSON(frame); err != nil {
				return err
			}
			offset++
		}

		// A full page means the watcher is still catching up on history,
		// go straight back for more.
		if len(frames) == socketFramePage {
			continue
		}

		// Drained. The stream stays open while the game can still grow,
		// stopped games may be started later.
		if len(frames) == 0 {
			game, err := s.store.GetGame(ctx, id)
			if err != nil {
				return err
			}
			if game.Status == controller.GameStatusComplete || game.Status == controller.GameStatusError {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-gone:
			return errWatcherGone
		case <-time.After(framePollInterval):
		}
	}
}
