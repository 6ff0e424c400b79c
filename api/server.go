package api

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

// maxOpenConnections caps concurrent api connections, mostly so a large
// websocket audience cannot starve the rest of the api.
const maxOpenConnections = 256

// Server exposes games over HTTP: create and start, status and frame
// history reads, the direction input sink and a websocket frame stream.
type Server struct {
	store controller.Store
	hs    *http.Server
}

// New returns a server for the given listen address backed by the given
// store.
func New(listen string, store controller.Store) *Server {
	s := &Server{store: store}

	router := httprouter.New()
	router.POST("/games", s.create)
	router.POST("/games/:id/start", s.start)
	router.GET("/games/:id", s.status)
	router.GET("/games/:id/frames", s.frames)
	router.POST("/games/:id/move", s.move)
	router.GET("/socket/:id", s.socket)

	s.hs = &http.Server{
		Addr:    listen,
		Handler: cors.AllowAll().Handler(router),
	}
	return s
}

// WaitForExit binds the listener and serves until the server dies.
func (s *Server) WaitForExit() error {
	l, err := net.Listen("tcp", s.hs.Addr)
	if err != nil {
		return errors.Wrap(err, "unable to bind api listener")
	}
	return s.hs.Serve(netutil.LimitListener(l, maxOpenConnections))
}

// StartResponse acknowledges a start request.
type StartResponse struct {
	ID string `json:"id"`
}

// StatusResponse pairs a game with the newest frame the store holds for
// it. LastFrame is absent only for games that never stored a frame.
type StatusResponse struct {
	Game      *controller.Game  `json:"game"`
	LastFrame *controller.Frame `json:"lastFrame,omitempty"`
}

// FramesResponse is one page of stored frames in turn order.
type FramesResponse struct {
	Frames []*controller.Frame `json:"frames"`
	Count  int                 `json:"count"`
}

// MoveRequest carries one direction input for a game.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// MoveResponse echoes the direction the engine accepted.
type MoveResponse struct {
	Direction sim.Direction `json:"direction"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := &controller.CreateRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && err != io.EOF {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid create request"))
		return
	}

	game, frames, err := controller.CreateInitialGame(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.CreateGame(r.Context(), game, frames); err != nil {
		s.storeError(w, err)
		return
	}

	log.WithField("game", game.ID).Info("game created")
	s.writeJSON(w, game)
}

func (s *Server) start(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	if err := s.store.SetGameStatus(r.Context(), id, controller.GameStatusRunning); err != nil {
		s.storeError(w, err)
		return
	}

	log.WithField("game", id).Info("game started")
	s.writeJSON(w, &StartResponse{ID: id})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	game, err := s.store.GetGame(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	frames, err := s.store.ListGameFrames(r.Context(), id, 1, -1)
	if err != nil {
		s.storeError(w, err)
		return
	}

	resp := &StatusResponse{Game: game}
	if len(frames) > 0 {
		resp.LastFrame = frames[0]
	}
	s.writeJSON(w, resp)
}

func (s *Server) frames(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	frames, err := s.store.ListGameFrames(r.Context(), id, limit, offset)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, &FramesResponse{Frames: frames, Count: len(frames)})
}

func (s *Server) move(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	req := &MoveRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid move request"))
		return
	}

	// Only the four movement directions cross the api. Reversals are not
	// rejected here, the simulation ignores them on its own terms.
	d, err := sim.ParseDirection(req.Direction)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetDirection(r.Context(), id, d); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, &MoveResponse{Direction: d})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return v, nil
}

// storeError maps store failures onto api status codes.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Cause(err) == controller.ErrNotFound {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if werr := json.NewEncoder(w).Encode(&errorResponse{Error: err.Error()}); werr != nil {
		log.WithError(werr).Error("unable to write api error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("unable to write api response")
	}
}
