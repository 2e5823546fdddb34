package engine

// LegalActions enumerates every action the current seat could legally apply.
// Generated take actions never push the player over the token cap, so none
// of them carries a returns list; this mirrors how bots are expected to
// play. An empty result means the seat has no legal move.
func (g *Game) LegalActions() []Action {
	if g.Phase != PhaseInProgress && g.Phase != PhaseFinalRound {
		return nil
	}

	var actions []Action
	p := g.CurrentPlayer()
	held := p.TokenCount()

	// Take up to three different colors, capped so the take cannot
	// exceed MaxTokens.
	var available []Gem
	for _, c := range BaseGems() {
		if g.Bank[c] > 0 {
			available = append(available, c)
		}
	}
	canTake := min(3, len(available), MaxTokens-held)
	if canTake > 0 {
		for _, combo := range combinations(available, canTake) {
			sortGems(combo)
			actions = append(actions, Action{Type: TakeThreeDifferent, Gems: combo})
		}
	}

	// Take two of one color (bank must hold four).
	if held <= MaxTokens-2 {
		for _, c := range BaseGems() {
			if g.Bank[c] >= 4 {
				actions = append(actions, Action{Type: TakeTwoSame, Gem: c})
			}
		}
	}

	// Reserves, skipped when the gold grant would bust the cap.
	if len(p.Reserved) < MaxReserved {
		goldGranted := g.Bank[Gold] > 0
		if !goldGranted || held < MaxTokens {
			for tier := 1; tier <= 3; tier++ {
				for _, c := range g.Visible[tier] {
					actions = append(actions, Action{Type: ReserveVisible, CardID: c.ID})
				}
				if len(g.Decks[tier]) > 0 {
					actions = append(actions, Action{Type: ReserveFromDeck, Tier: tier})
				}
			}
		}
	}

	// Purchases.
	for tier := 1; tier <= 3; tier++ {
		for _, c := range g.Visible[tier] {
			if _, err := p.paymentFor(c.Cost); err == nil {
				actions = append(actions, Action{Type: PurchaseVisible, CardID: c.ID})
			}
		}
	}
	for _, c := range p.Reserved {
		if _, err := p.paymentFor(c.Cost); err == nil {
			actions = append(actions, Action{Type: PurchaseReserved, CardID: c.ID})
		}
	}

	return actions
}

// combinations returns all k-element subsets of gems.
func combinations(gems []Gem, k int) [][]Gem {
	if k <= 0 || k > len(gems) {
		return nil
	}
	var out [][]Gem
	combo := make([]Gem, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			out = append(out, append([]Gem(nil), combo...))
			return
		}
		for i := start; i <= len(gems)-(k-depth); i++ {
			combo[depth] = gems[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return out
}
