package room

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/timopomer/splendor-ai/engine"
	"github.com/timopomer/splendor-ai/internal/auth"
	"github.com/timopomer/splendor-ai/internal/policy"
	"github.com/timopomer/splendor-ai/internal/view"
)

// Alphabet for room codes, with the easily confused characters left out.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// botChainLimit caps one bot chain. A full game is a few hundred actions,
// so hitting the cap means the table is stalled, not slow.
const botChainLimit = 1000

// SeatResult is one seat's line in a finished game's record.
type SeatResult struct {
	Seat     int
	Kind     SeatKind
	Name     string
	PolicyID string
	Points   int
	Cards    int
	Nobles   int
}

// GameResult is handed to the OnGameEnd hook when a game finishes.
type GameResult struct {
	GameID     uuid.UUID
	RoomCode   string
	NumPlayers int
	Winner     int
	Turns      int
	FinishedAt time.Time
	Seats      []SeatResult
}

// OnGameEndFunc receives the result of every finished game. It is invoked
// on its own goroutine and must not touch the room.
type OnGameEndFunc func(GameResult)

// Manager owns every room. Its own lock guards only the room table; each
// room carries its own mutex.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	issuer    *auth.Issuer
	policies  policy.Factory
	botBudget time.Duration
	log       *logrus.Logger
	onGameEnd OnGameEndFunc

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewManager builds a manager with its own seeded rng for room codes and
// game seeds.
func NewManager(issuer *auth.Issuer, policies policy.Factory, botBudget time.Duration, log *logrus.Logger) *Manager {
	if botBudget <= 0 {
		botBudget = 5 * time.Second
	}
	return &Manager{
		rooms:     make(map[string]*Room),
		issuer:    issuer,
		policies:  policies,
		botBudget: botBudget,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetOnGameEnd registers the finished-game hook. Call before serving
// traffic.
func (m *Manager) SetOnGameEnd(fn OnGameEndFunc) { m.onGameEnd = fn }

func (m *Manager) randInt63() int64 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Int63()
}

func (m *Manager) newCode() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
	}
	return string(buf)
}

// CreateRoom opens a room for numPlayers seats and seats the creator as
// host at seat 0. Returns the room code and the host's seat token.
func (m *Manager) CreateRoom(numPlayers int, hostName string) (Info, string, error) {
	if numPlayers < engine.MinPlayers || numPlayers > engine.MaxPlayers {
		return Info{}, "", fmt.Errorf("player count must be %d-%d, got %d", engine.MinPlayers, engine.MaxPlayers, numPlayers)
	}
	if hostName == "" {
		hostName = "host"
	}

	r := &Room{
		Seats:     make([]Seat, numPlayers),
		CreatedAt: time.Now(),
	}
	for i := range r.Seats {
		r.Seats[i].Kind = SeatEmpty
	}

	// The host seat is bound under r.mu before the room is reachable
	// through the table, so a racing Join can never claim seat 0.
	r.mu.Lock()
	defer r.mu.Unlock()

	m.mu.Lock()
	for {
		code := m.newCode()
		if _, taken := m.rooms[code]; !taken {
			r.Code = code
			m.rooms[code] = r
			break
		}
	}
	m.mu.Unlock()

	tok, id, err := m.issuer.Issue(r.Code, 0)
	if err != nil {
		m.mu.Lock()
		delete(m.rooms, r.Code)
		m.mu.Unlock()
		return Info{}, "", fmt.Errorf("issue host token: %w", err)
	}
	r.Seats[0] = Seat{Kind: SeatHuman, Name: hostName, TokenID: id}
	r.HostSeat = 0

	m.log.WithFields(logrus.Fields{
		"room":    r.Code,
		"players": numPlayers,
		"host":    hostName,
	}).Info("room created")

	return r.info(), tok, nil
}

// lookup fetches a room by code.
func (m *Manager) lookup(code string) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// RoomInfo returns the public room summary.
func (m *Manager) RoomInfo(code string) (Info, error) {
	r, err := m.lookup(code)
	if err != nil {
		return Info{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info(), nil
}

// Join seats a human at the lowest open seat and returns their seat token.
func (m *Manager) Join(code, name string) (Info, int, string, error) {
	r, err := m.lookup(code)
	if err != nil {
		return Info{}, 0, "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return Info{}, 0, "", ErrRoomFailed
	}
	if r.Started {
		return Info{}, 0, "", ErrAlreadyStarted
	}
	seat := r.openHumanSeat()
	if seat < 0 {
		return Info{}, 0, "", ErrRoomFull
	}
	if name == "" {
		name = fmt.Sprintf("player-%d", seat)
	}

	tok, id, err := m.issuer.Issue(r.Code, seat)
	if err != nil {
		return Info{}, 0, "", fmt.Errorf("issue seat token: %w", err)
	}
	r.Seats[seat] = Seat{Kind: SeatHuman, Name: name, TokenID: id}

	m.log.WithFields(logrus.Fields{"room": r.Code, "seat": seat, "name": name}).Info("player joined")
	return r.info(), seat, tok, nil
}

// resolveSeat maps a bearer token to the seat it controls. Caller holds
// r.mu.
func (m *Manager) resolveSeat(r *Room, token string) (int, error) {
	claims, err := m.issuer.Verify(token)
	if err != nil {
		return 0, ErrUnauthorized
	}
	if claims.RoomCode != r.Code || claims.Seat < 0 || claims.Seat >= len(r.Seats) {
		return 0, ErrUnauthorized
	}
	s := &r.Seats[claims.Seat]
	if s.Kind != SeatHuman || s.TokenID != claims.TokenID {
		return 0, ErrUnauthorized
	}
	return claims.Seat, nil
}

// ConfigureSeat lets the host set a seat to empty, open-for-human, or a
// bot with the given policy, before the game starts. A seat a human has
// already joined cannot be reconfigured out from under them.
func (m *Manager) ConfigureSeat(code, token string, seat int, kind SeatKind, policyID string) (Info, error) {
	r, err := m.lookup(code)
	if err != nil {
		return Info{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return Info{}, ErrRoomFailed
	}
	caller, err := m.resolveSeat(r, token)
	if err != nil {
		return Info{}, err
	}
	if caller != r.HostSeat {
		return Info{}, ErrNotHost
	}
	if r.Started {
		return Info{}, ErrAlreadyStarted
	}
	if seat < 0 || seat >= len(r.Seats) {
		return Info{}, ErrBadSeat
	}
	if r.Seats[seat].joined() {
		return Info{}, ErrSeatOccupied
	}

	switch kind {
	case SeatEmpty, SeatHuman:
		r.Seats[seat] = Seat{Kind: kind}
	case SeatBot:
		if !m.policies.Supported(policyID) {
			return Info{}, ErrUnknownPolicy
		}
		r.Seats[seat] = Seat{Kind: SeatBot, Name: fmt.Sprintf("bot-%d", seat), PolicyID: policyID}
	default:
		return Info{}, fmt.Errorf("unknown seat kind %q", kind)
	}

	m.log.WithFields(logrus.Fields{
		"room": r.Code, "seat": seat, "kind": kind, "policy": policyID,
	}).Info("seat configured")
	return r.info(), nil
}

// Start deals the game. Host only; every seat must be filled. If seat 0's
// neighborhood opens with bots, their turns run before Start returns.
func (m *Manager) Start(code, token string) (view.GameView, error) {
	r, err := m.lookup(code)
	if err != nil {
		return view.GameView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return view.GameView{}, ErrRoomFailed
	}
	caller, err := m.resolveSeat(r, token)
	if err != nil {
		return view.GameView{}, err
	}
	if caller != r.HostSeat {
		return view.GameView{}, ErrNotHost
	}
	if r.Started {
		return view.GameView{}, ErrAlreadyStarted
	}
	if !r.canStart() {
		return view.GameView{}, fmt.Errorf("%w: not all seats are filled", ErrNotStarted)
	}

	for i := range r.Seats {
		s := &r.Seats[i]
		if s.Kind != SeatBot {
			continue
		}
		p, err := m.policies.New(s.PolicyID, m.randInt63())
		if err != nil {
			return view.GameView{}, fmt.Errorf("seat %d: %w", i, err)
		}
		s.policy = p
	}

	g, err := engine.NewGame(len(r.Seats), m.randInt63())
	if err != nil {
		return view.GameView{}, fmt.Errorf("deal game: %w", err)
	}
	r.game = g
	r.GameID = uuid.New()
	r.Started = true

	m.log.WithFields(logrus.Fields{
		"room": r.Code, "game": r.GameID, "players": len(r.Seats),
	}).Info("game started")

	m.runBots(r)
	return view.Project(r.game, caller), nil
}

// SubmitAction applies the caller's action. Engine rejections come back as
// *engine.Rejection with the room untouched; on success any bot turns that
// follow run before the caller's refreshed view is returned.
func (m *Manager) SubmitAction(code, token string, a engine.Action) (view.GameView, error) {
	r, err := m.lookup(code)
	if err != nil {
		return view.GameView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return view.GameView{}, ErrRoomFailed
	}
	seat, err := m.resolveSeat(r, token)
	if err != nil {
		return view.GameView{}, err
	}
	if !r.Started {
		return view.GameView{}, ErrNotStarted
	}

	if err := r.game.Apply(seat, a); err != nil {
		return view.GameView{}, err
	}
	m.log.WithFields(logrus.Fields{
		"room": r.Code, "seat": seat, "action": a.Type, "turn": r.game.Turn,
	}).Debug("action applied")

	if err := m.checkRoom(r); err != nil {
		return view.GameView{}, err
	}
	m.runBots(r)
	if r.failed {
		return view.GameView{}, ErrRoomFailed
	}
	return view.Project(r.game, seat), nil
}

// State returns the caller's redacted view of the running game.
func (m *Manager) State(code, token string) (view.GameView, error) {
	r, err := m.lookup(code)
	if err != nil {
		return view.GameView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return view.GameView{}, ErrRoomFailed
	}
	seat, err := m.resolveSeat(r, token)
	if err != nil {
		return view.GameView{}, err
	}
	if !r.Started {
		return view.GameView{}, ErrNotStarted
	}
	return view.Project(r.game, seat), nil
}

// checkRoom runs the engine's conservation checks and fails the room on
// the first violation. A failed room rejects everything thereafter; the
// bug gets logged, not propagated to other tables. Caller holds r.mu.
func (m *Manager) checkRoom(r *Room) error {
	if err := r.game.CheckInvariants(); err != nil {
		r.failed = true
		m.log.WithFields(logrus.Fields{
			"room": r.Code, "game": r.GameID, "turn": r.game.Turn,
		}).WithError(err).Error("state invariant violated, failing room")
		return ErrRoomFailed
	}
	if r.game.Phase == engine.PhaseGameOver {
		m.finishGame(r)
	}
	return nil
}

// runBots plays bot seats until control reaches a human or the game ends.
// Caller holds r.mu.
func (m *Manager) runBots(r *Room) {
	for steps := 0; steps < botChainLimit; steps++ {
		if r.failed || r.game.Phase == engine.PhaseGameOver {
			return
		}
		seat := r.game.Current
		s := &r.Seats[seat]
		if s.Kind != SeatBot {
			return
		}

		legal := r.game.LegalActions()
		if len(legal) == 0 {
			// The rules guarantee at least one legal action, so this is
			// an engine bug. Stall the chain instead of inventing a move.
			m.log.WithFields(logrus.Fields{
				"room": r.Code, "seat": seat, "turn": r.game.Turn,
			}).Warn("no legal actions for bot seat, stalling")
			return
		}

		a := m.decide(s.policy, view.Project(r.game, seat), legal)
		if err := r.game.Apply(seat, a); err != nil {
			// The chosen action came from the legal set, so a rejection
			// here is an engine bug.
			r.failed = true
			m.log.WithFields(logrus.Fields{
				"room": r.Code, "seat": seat, "action": a.Type,
			}).WithError(err).Error("legal bot action rejected, failing room")
			return
		}
		m.log.WithFields(logrus.Fields{
			"room": r.Code, "seat": seat, "action": a.Type, "turn": r.game.Turn,
		}).Debug("bot action applied")

		if m.checkRoom(r) != nil {
			return
		}
	}
	r.failed = true
	m.log.WithField("room", r.Code).Error("bot chain exceeded step limit, failing room")
}

// decide asks the policy for a move within the bot time budget. Any error,
// timeout, or out-of-set answer falls back to a uniform random pick, so a
// flaky policy degrades the bot rather than the table.
func (m *Manager) decide(p policy.Policy, v view.GameView, legal []engine.Action) engine.Action {
	ctx, cancel := context.WithTimeout(context.Background(), m.botBudget)
	defer cancel()

	type answer struct {
		action engine.Action
		err    error
	}
	ch := make(chan answer, 1)
	go func() {
		a, err := p.Decide(ctx, v, legal)
		ch <- answer{a, err}
	}()

	select {
	case ans := <-ch:
		if ans.err == nil && actionInSet(legal, ans.action) {
			return ans.action
		}
		if ans.err != nil {
			m.log.WithError(ans.err).Warn("policy decide failed, picking random")
		} else {
			m.log.Warn("policy returned action outside legal set, picking random")
		}
	case <-ctx.Done():
		m.log.Warn("policy decide timed out, picking random")
	}

	m.rngMu.Lock()
	i := m.rng.Intn(len(legal))
	m.rngMu.Unlock()
	return legal[i]
}

func actionInSet(legal []engine.Action, a engine.Action) bool {
	for i := range legal {
		if reflect.DeepEqual(legal[i], a) {
			return true
		}
	}
	return false
}

// finishGame builds the result record and hands it to the hook. Caller
// holds r.mu.
func (m *Manager) finishGame(r *Room) {
	g := r.game
	res := GameResult{
		GameID:     r.GameID,
		RoomCode:   r.Code,
		NumPlayers: len(r.Seats),
		Winner:     g.Winner,
		Turns:      g.Turn,
		FinishedAt: time.Now(),
		Seats:      make([]SeatResult, len(r.Seats)),
	}
	for i := range r.Seats {
		s := &r.Seats[i]
		p := &g.Players[i]
		res.Seats[i] = SeatResult{
			Seat:     i,
			Kind:     s.Kind,
			Name:     s.Name,
			PolicyID: s.PolicyID,
			Points:   p.Points,
			Cards:    len(p.Cards),
			Nobles:   len(p.Nobles),
		}
	}

	m.log.WithFields(logrus.Fields{
		"room": r.Code, "game": r.GameID, "winner": g.Winner, "turns": g.Turn,
	}).Info("game over")

	if m.onGameEnd != nil {
		go m.onGameEnd(res)
	}
}
