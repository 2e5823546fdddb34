// Package engine implements the Splendor rules as a pure state machine.
//
// The engine performs no I/O and knows nothing about rooms, seats' owners or
// transports. All mutation goes through (*Game).Apply, which fully validates
// an action against the current state before committing any change; a
// rejected action leaves the state untouched.
package engine

import (
	"fmt"
	"math/rand"
)

const (
	MinPlayers = 2
	MaxPlayers = 4

	// WinningPoints triggers the final round the moment any player
	// reaches it.
	WinningPoints = 15

	// MaxTokens is the most tokens a player may hold once their turn
	// completes; the excess must be returned in the same action.
	MaxTokens = 10

	// MaxReserved caps a player's private reserve.
	MaxReserved = 3

	// VisiblePerTier is the number of face-up cards per tier while the
	// tier's deck can still refill them.
	VisiblePerTier = 4

	// GoldTokens is the bank's gold supply regardless of player count.
	GoldTokens = 5
)

// baseTokensByPlayers is the bank's per-color base supply by seat count.
var baseTokensByPlayers = map[int]int{2: 4, 3: 5, 4: 7}

// Phase is the game's lifecycle state.
type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseInProgress
	PhaseFinalRound
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinalRound:
		return "final_round"
	case PhaseGameOver:
		return "game_over"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Player is one seat's holdings.
type Player struct {
	Seat     int
	Tokens   GemCount
	Bonuses  GemCount // derived from owned cards, maintained incrementally
	Cards    []Card
	Reserved []Card
	Nobles   []Noble
	Points   int
}

// TokenCount is the player's total token count including gold.
func (p *Player) TokenCount() int { return p.Tokens.Total() }

// Game is the complete authoritative state of one Splendor game.
type Game struct {
	Players []Player
	Bank    GemCount
	Decks   map[int][]Card // face-down, by tier; index 0 is the top
	Visible map[int][]Card // face-up, by tier
	Nobles  []Noble

	Current int // seat whose turn it is
	Turn    int // increments on every applied action
	Phase   Phase

	// FinalTrigger is the seat that first reached WinningPoints, -1 before
	// then. While PhaseFinalRound, finalTurnsLeft counts the seats still
	// owed their last turn.
	FinalTrigger   int
	finalTurnsLeft int

	// Winner is the winning seat, -1 until PhaseGameOver.
	Winner int
}

// NewGame deals a fresh game for the given seat count. The seed fixes deck
// and noble shuffles, making games reproducible.
func NewGame(numPlayers int, seed int64) (*Game, error) {
	base, ok := baseTokensByPlayers[numPlayers]
	if !ok {
		return nil, fmt.Errorf("player count %d not in [%d,%d]", numPlayers, MinPlayers, MaxPlayers)
	}

	rng := rand.New(rand.NewSource(seed))

	g := &Game{
		Players:      make([]Player, numPlayers),
		Decks:        make(map[int][]Card, 3),
		Visible:      make(map[int][]Card, 3),
		Phase:        PhaseInProgress,
		FinalTrigger: -1,
		Winner:       -1,
	}
	for i := range g.Players {
		g.Players[i].Seat = i
	}

	for _, c := range BaseGems() {
		g.Bank[c] = base
	}
	g.Bank[Gold] = GoldTokens

	// Tiers must consume the RNG stream in a fixed order or the seed
	// stops pinning the deal.
	cards := BaseCards()
	for tier := 1; tier <= 3; tier++ {
		deck := cards[tier]
		rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
		g.Visible[tier] = deck[:VisiblePerTier]
		g.Decks[tier] = deck[VisiblePerTier:]
	}

	nobles := BaseNobles()
	rng.Shuffle(len(nobles), func(i, j int) { nobles[i], nobles[j] = nobles[j], nobles[i] })
	g.Nobles = nobles[:numPlayers+1]

	return g, nil
}

// IsTerminal reports whether the game has ended.
func (g *Game) IsTerminal() bool { return g.Phase == PhaseGameOver }

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player { return &g.Players[g.Current] }

// visibleCard finds a face-up card by id, returning its tier and position.
func (g *Game) visibleCard(cardID string) (Card, int, int, bool) {
	for tier := 1; tier <= 3; tier++ {
		for i, c := range g.Visible[tier] {
			if c.ID == cardID {
				return c, tier, i, true
			}
		}
	}
	return Card{}, 0, 0, false
}

// removeVisible takes a face-up card off the board and refills its slot from
// the tier's deck if the deck is non-empty.
func (g *Game) removeVisible(tier, idx int) {
	visible := g.Visible[tier]
	visible = append(visible[:idx:idx], visible[idx+1:]...)
	if deck := g.Decks[tier]; len(deck) > 0 {
		visible = append(visible, deck[0])
		g.Decks[tier] = deck[1:]
	}
	g.Visible[tier] = visible
}

// advanceTurn moves to the next seat, drives the final-round bookkeeping and
// settles the winner when the last owed turn has been played.
func (g *Game) advanceTurn() {
	p := g.CurrentPlayer()
	if g.Phase == PhaseInProgress && p.Points >= WinningPoints {
		g.Phase = PhaseFinalRound
		g.FinalTrigger = g.Current
		g.finalTurnsLeft = len(g.Players) - 1
	} else if g.Phase == PhaseFinalRound {
		g.finalTurnsLeft--
	}

	g.Turn++
	g.Current = (g.Current + 1) % len(g.Players)

	if g.Phase == PhaseFinalRound && g.finalTurnsLeft == 0 {
		g.finish()
	}
}

// finish selects the winner: highest points, ties broken by fewest owned
// cards, remaining ties by lowest seat index.
func (g *Game) finish() {
	g.Phase = PhaseGameOver
	winner, bestPoints, bestCards := 0, -1, int(^uint(0)>>1)
	for i := range g.Players {
		p := &g.Players[i]
		if p.Points > bestPoints || (p.Points == bestPoints && len(p.Cards) < bestCards) {
			winner, bestPoints, bestCards = i, p.Points, len(p.Cards)
		}
	}
	g.Winner = winner
}
