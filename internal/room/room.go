// Package room owns the table of game rooms and serializes all access to
// each one. A room is the unit of concurrency: operations on one room are
// applied strictly in arrival order under its lock, while distinct rooms
// proceed fully in parallel.
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timopomer/splendor-ai/engine"
	"github.com/timopomer/splendor-ai/internal/policy"
)

// Service-level errors, distinct from engine rule rejections.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotStarted     = errors.New("game not started")
	ErrNotHost        = errors.New("only the host may do this")
	ErrBadSeat        = errors.New("no such seat")
	ErrSeatOccupied   = errors.New("seat is occupied by a player")
	ErrUnauthorized   = errors.New("invalid seat token")
	ErrUnknownPolicy  = errors.New("unknown bot policy")
	ErrRoomFailed     = errors.New("room failed an internal consistency check")
)

// SeatKind is the occupancy state of one seat.
type SeatKind string

const (
	SeatEmpty SeatKind = "empty"
	SeatHuman SeatKind = "human"
	SeatBot   SeatKind = "bot"
)

// Seat is one chair at the table. A human seat may be open (no name yet) or
// joined (name + token bound); a bot seat carries its policy binding.
type Seat struct {
	Kind     SeatKind
	Name     string
	TokenID  string // set for joined humans; invalidated on reconfigure
	PolicyID string // set for bots
	policy   policy.Policy
}

func (s *Seat) joined() bool { return s.Kind == SeatHuman && s.Name != "" }

// filled reports whether the seat lets the game start.
func (s *Seat) filled() bool { return s.joined() || s.Kind == SeatBot }

// Room is one table. All fields behind mu; the manager locks mu for the
// entire duration of every operation touching the room, bot chains
// included.
type Room struct {
	mu sync.Mutex

	Code      string
	GameID    uuid.UUID
	HostSeat  int
	Seats     []Seat
	Started   bool
	CreatedAt time.Time

	game   *engine.Game
	failed bool
}

// SeatInfo is the public form of one seat: no tokens, no policy internals
// beyond the id.
type SeatInfo struct {
	Seat     int      `json:"seat"`
	Kind     SeatKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	PolicyID string   `json:"policy,omitempty"`
}

// Info is the public room summary served without authentication.
type Info struct {
	Code       string     `json:"code"`
	NumPlayers int        `json:"numPlayers"`
	HostSeat   int        `json:"hostSeat"`
	Started    bool       `json:"started"`
	Seats      []SeatInfo `json:"seats"`
}

// info snapshots the public view. Caller holds r.mu.
func (r *Room) info() Info {
	seats := make([]SeatInfo, len(r.Seats))
	for i := range r.Seats {
		s := &r.Seats[i]
		seats[i] = SeatInfo{Seat: i, Kind: s.Kind, Name: s.Name, PolicyID: s.PolicyID}
	}
	return Info{
		Code:       r.Code,
		NumPlayers: len(r.Seats),
		HostSeat:   r.HostSeat,
		Started:    r.Started,
		Seats:      seats,
	}
}

// openHumanSeat finds the lowest-indexed joinable seat. Caller holds r.mu.
func (r *Room) openHumanSeat() int {
	for i := range r.Seats {
		s := &r.Seats[i]
		if (s.Kind == SeatEmpty || s.Kind == SeatHuman) && !s.joined() {
			return i
		}
	}
	return -1
}

// canStart reports whether every seat is filled. Caller holds r.mu.
func (r *Room) canStart() bool {
	for i := range r.Seats {
		if !r.Seats[i].filled() {
			return false
		}
	}
	return true
}
