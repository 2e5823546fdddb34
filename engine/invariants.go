package engine

import "fmt"

// InitialSupply returns the bank's starting token vector for a seat count.
func InitialSupply(numPlayers int) (GemCount, bool) {
	base, ok := baseTokensByPlayers[numPlayers]
	if !ok {
		return GemCount{}, false
	}
	var supply GemCount
	for _, c := range BaseGems() {
		supply[c] = base
	}
	supply[Gold] = GoldTokens
	return supply, true
}

// CheckInvariants verifies the structural invariants that must hold after
// every applied action. A non-nil error here is not a rule rejection but a
// corrupted state: the caller is expected to fail the whole session.
func (g *Game) CheckInvariants() error {
	supply, ok := InitialSupply(len(g.Players))
	if !ok {
		return fmt.Errorf("invalid player count %d", len(g.Players))
	}

	circulating := g.Bank
	for i := range g.Players {
		circulating = circulating.Add(g.Players[i].Tokens)
	}
	if circulating != supply {
		return fmt.Errorf("token conservation violated: circulating %v, supply %v", circulating, supply)
	}

	for i := range g.Players {
		p := &g.Players[i]
		if len(p.Reserved) > MaxReserved {
			return fmt.Errorf("seat %d holds %d reserved cards", i, len(p.Reserved))
		}
		for _, v := range p.Tokens {
			if v < 0 {
				return fmt.Errorf("seat %d holds negative tokens", i)
			}
		}
		if p.TokenCount() > MaxTokens {
			return fmt.Errorf("seat %d holds %d tokens after turn completion", i, p.TokenCount())
		}
		if p.Points < 0 {
			return fmt.Errorf("seat %d has negative points", i)
		}
	}
	for _, v := range g.Bank {
		if v < 0 {
			return fmt.Errorf("bank holds negative tokens")
		}
	}

	if g.Current < 0 || g.Current >= len(g.Players) {
		return fmt.Errorf("current seat %d out of range", g.Current)
	}
	return nil
}

// Clone returns a deep copy of the game state. Readers projecting views work
// on clones so they can never observe a partially applied action.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]Player, len(g.Players))
	for i := range g.Players {
		p := g.Players[i]
		p.Cards = append([]Card(nil), p.Cards...)
		p.Reserved = append([]Card(nil), p.Reserved...)
		p.Nobles = append([]Noble(nil), p.Nobles...)
		cp.Players[i] = p
	}
	cp.Decks = make(map[int][]Card, len(g.Decks))
	for tier, deck := range g.Decks {
		cp.Decks[tier] = append([]Card(nil), deck...)
	}
	cp.Visible = make(map[int][]Card, len(g.Visible))
	for tier, visible := range g.Visible {
		cp.Visible[tier] = append([]Card(nil), visible...)
	}
	cp.Nobles = append([]Noble(nil), g.Nobles...)
	return &cp
}
