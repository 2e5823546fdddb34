// Package httpapi exposes the room manager over JSON HTTP. Rule
// rejections are part of the game protocol and travel as 200 responses
// with success:false; HTTP status codes are reserved for transport and
// authorization problems.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/timopomer/splendor-ai/engine"
	"github.com/timopomer/splendor-ai/internal/room"
	"github.com/timopomer/splendor-ai/internal/view"
)

type Server struct {
	mgr *room.Manager
	log *logrus.Logger
}

// NewRouter wires the API routes onto a chi router.
func NewRouter(mgr *room.Manager, log *logrus.Logger) http.Handler {
	s := &Server{mgr: mgr, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", s.createRoom)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", s.roomInfo)
			r.Post("/join", s.join)
			r.Post("/seats", s.configureSeat)
			r.Post("/start", s.start)
			r.Get("/state", s.state)
			r.Post("/actions", s.submitAction)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start).Round(time.Microsecond),
		}).Info("http request")
	})
}

type createRoomRequest struct {
	NumPlayers int    `json:"numPlayers"`
	PlayerName string `json:"playerName"`
}

type seatGrant struct {
	Room      room.Info `json:"room"`
	Seat      int       `json:"seat"`
	SeatToken string    `json:"seatToken"`
}

type joinRequest struct {
	PlayerName string `json:"playerName"`
}

type configureSeatRequest struct {
	Seat   int           `json:"seat"`
	Kind   room.SeatKind `json:"kind"`
	Policy string        `json:"policy,omitempty"`
}

type actionRequest struct {
	Action engine.Action `json:"action"`
}

type actionResponse struct {
	Success bool                 `json:"success"`
	View    *view.GameView       `json:"view,omitempty"`
	Kind    engine.RejectionKind `json:"kind,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	info, token, err := s.mgr.CreateRoom(req.NumPlayers, req.PlayerName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seatGrant{Room: info, Seat: info.HostSeat, SeatToken: token})
}

func (s *Server) roomInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.mgr.RoomInfo(chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	info, seat, token, err := s.mgr.Join(chi.URLParam(r, "code"), req.PlayerName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seatGrant{Room: info, Seat: seat, SeatToken: token})
}

func (s *Server) configureSeat(w http.ResponseWriter, r *http.Request) {
	var req configureSeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	info, err := s.mgr.ConfigureSeat(chi.URLParam(r, "code"), bearerToken(r), req.Seat, req.Kind, req.Policy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Start(chi.URLParam(r, "code"), bearerToken(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.State(chi.URLParam(r, "code"), bearerToken(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) submitAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	v, err := s.mgr.SubmitAction(chi.URLParam(r, "code"), bearerToken(r), req.Action)
	if err != nil {
		var rej *engine.Rejection
		if errors.As(err, &rej) {
			writeJSON(w, http.StatusOK, actionResponse{Success: false, Kind: rej.Kind, Error: rej.Detail})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true, View: &v})
}

// writeError maps manager errors onto status codes. Game-rule rejections
// never reach here; they are handled in submitAction.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, room.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, room.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, room.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrRoomFailed):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{err.Error()})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return after
	}
	return ""
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
