// Package view projects authoritative game state into seat-specific
// snapshots with hidden information redacted. Projections are pure reads:
// they never mutate the state they are given and are always derived fresh
// from it, so no per-client copy can drift from the source of truth.
package view

import (
	"github.com/timopomer/splendor-ai/engine"
)

// HiddenCard is an opponent's reserved card: the tier is public, the
// identity and cost are not.
type HiddenCard struct {
	Tier   int  `json:"tier"`
	Hidden bool `json:"hidden"`
}

// PlayerView is one player's holdings as seen by the requesting seat.
// Reserved is populated only for the requester's own entry.
type PlayerView struct {
	Seat           int             `json:"seat"`
	Tokens         engine.GemCount `json:"tokens"`
	Bonuses        engine.GemCount `json:"bonuses"`
	Points         int             `json:"points"`
	Cards          []engine.Card   `json:"cards"`
	CardCount      int             `json:"cardCount"`
	Reserved       []engine.Card   `json:"reserved,omitempty"`
	ReservedHidden []HiddenCard    `json:"reservedHidden,omitempty"`
	Nobles         []engine.Noble  `json:"nobles"`
	NobleCount     int             `json:"nobleCount"`
}

// GameView is a full redacted snapshot for one seat. Players are rotated so
// the requester's entry is first; every public field is copied verbatim from
// the authoritative state.
type GameView struct {
	YourSeat    int    `json:"yourSeat"`
	IsYourTurn  bool   `json:"isYourTurn"`
	CurrentSeat int    `json:"currentSeat"`
	Turn        int    `json:"turn"`
	FinalRound  bool   `json:"finalRound"`
	GameOver    bool   `json:"gameOver"`
	Winner      *int   `json:"winner,omitempty"`

	Bank       engine.GemCount          `json:"bank"`
	Nobles     []engine.Noble           `json:"nobles"`
	Visible    map[int][]engine.Card    `json:"visibleCards"`
	DeckCounts map[int]int              `json:"deckCounts"`
	Players    []PlayerView             `json:"players"`
}

// Project builds the snapshot for the given seat. The caller must hold
// whatever lock guards g; the result shares no mutable data with it.
func Project(g *engine.Game, seat int) GameView {
	n := len(g.Players)

	v := GameView{
		YourSeat:    seat,
		IsYourTurn:  g.Current == seat && !g.IsTerminal(),
		CurrentSeat: g.Current,
		Turn:        g.Turn,
		FinalRound:  g.Phase == engine.PhaseFinalRound,
		GameOver:    g.IsTerminal(),
		Bank:        g.Bank,
		Nobles:      append([]engine.Noble(nil), g.Nobles...),
		Visible:     make(map[int][]engine.Card, 3),
		DeckCounts:  make(map[int]int, 3),
		Players:     make([]PlayerView, 0, n),
	}
	if g.Winner >= 0 {
		w := g.Winner
		v.Winner = &w
	}

	for tier := 1; tier <= 3; tier++ {
		v.Visible[tier] = append([]engine.Card(nil), g.Visible[tier]...)
		v.DeckCounts[tier] = len(g.Decks[tier])
	}

	for i := 0; i < n; i++ {
		actual := (seat + i) % n
		v.Players = append(v.Players, projectPlayer(&g.Players[actual], actual == seat))
	}
	return v
}

func projectPlayer(p *engine.Player, self bool) PlayerView {
	pv := PlayerView{
		Seat:       p.Seat,
		Tokens:     p.Tokens,
		Bonuses:    p.Bonuses,
		Points:     p.Points,
		Cards:      append([]engine.Card(nil), p.Cards...),
		CardCount:  len(p.Cards),
		Nobles:     append([]engine.Noble(nil), p.Nobles...),
		NobleCount: len(p.Nobles),
	}
	if self {
		pv.Reserved = append([]engine.Card(nil), p.Reserved...)
	} else {
		for _, c := range p.Reserved {
			pv.ReservedHidden = append(pv.ReservedHidden, HiddenCard{Tier: c.Tier, Hidden: true})
		}
	}
	return pv
}
