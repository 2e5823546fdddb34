package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ActionType tags the Action union.
type ActionType string

const (
	TakeThreeDifferent ActionType = "take_three_different"
	TakeTwoSame        ActionType = "take_two_same"
	ReserveVisible     ActionType = "reserve_visible"
	ReserveFromDeck    ActionType = "reserve_from_deck"
	PurchaseVisible    ActionType = "purchase_visible"
	PurchaseReserved   ActionType = "purchase_reserved"
)

// Action is the tagged union of all player moves. Only the fields relevant
// to Type are consulted; ReturnGems applies to the four token-gaining
// variants and is ignored when no return is required.
type Action struct {
	Type       ActionType `json:"type"`
	Gems       []Gem      `json:"gems,omitempty"`       // take_three_different
	Gem        Gem        `json:"gem"`                  // take_two_same
	CardID     string     `json:"cardId,omitempty"`     // reserve_visible, purchase_*
	Tier       int        `json:"tier,omitempty"`       // reserve_from_deck
	ReturnGems []Gem      `json:"returnGems,omitempty"` // mandatory when over the token cap
}

// UnmarshalJSON enforces that take_two_same names its gem. Gem's zero value
// is a real color, so key presence has to be checked here rather than after
// decoding.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       ActionType `json:"type"`
		Gems       []Gem      `json:"gems"`
		Gem        *Gem       `json:"gem"`
		CardID     string     `json:"cardId"`
		Tier       int        `json:"tier"`
		ReturnGems []Gem      `json:"returnGems"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Gem == nil && raw.Type == TakeTwoSame {
		return fmt.Errorf("take_two_same requires a gem")
	}
	a.Type = raw.Type
	a.Gems = raw.Gems
	a.CardID = raw.CardID
	a.Tier = raw.Tier
	a.ReturnGems = raw.ReturnGems
	a.Gem = 0
	if raw.Gem != nil {
		a.Gem = *raw.Gem
	}
	return nil
}

// Apply validates the action for the given seat and, only if fully valid,
// commits it and advances the turn. On any rejection the state is unchanged.
func (g *Game) Apply(seat int, a Action) error {
	switch g.Phase {
	case PhaseSetup:
		return reject(GameNotStarted, "game has not started")
	case PhaseGameOver:
		return reject(GameAlreadyOver, "game is over")
	}
	if seat != g.Current {
		return reject(NotYourTurn, "seat %d acted on seat %d's turn", seat, g.Current)
	}

	var err error
	switch a.Type {
	case TakeThreeDifferent:
		err = g.takeThreeDifferent(a)
	case TakeTwoSame:
		err = g.takeTwoSame(a)
	case ReserveVisible:
		err = g.reserveVisible(a)
	case ReserveFromDeck:
		err = g.reserveFromDeck(a)
	case PurchaseVisible:
		err = g.purchaseVisible(a)
	case PurchaseReserved:
		err = g.purchaseReserved(a)
	default:
		err = reject(InvalidActionShape, "unknown action type %q", a.Type)
	}
	if err != nil {
		return err
	}

	g.advanceTurn()
	return nil
}

// takeThreeDifferent takes one token each of 1-3 distinct base colors.
func (g *Game) takeThreeDifferent(a Action) error {
	if len(a.Gems) < 1 || len(a.Gems) > 3 {
		return reject(InvalidActionShape, "take_three_different needs 1-3 gems, got %d", len(a.Gems))
	}
	var taken GemCount
	for _, gem := range a.Gems {
		if gem >= Gold {
			return reject(InvalidActionShape, "cannot take %s with this action", gem)
		}
		if taken[gem] > 0 {
			return reject(InvalidActionShape, "duplicate gem %s", gem)
		}
		if g.Bank[gem] < 1 {
			return reject(InsufficientBank, "no %s tokens in bank", gem)
		}
		taken[gem] = 1
	}

	p := g.CurrentPlayer()
	tokens, returned, err := settleReturns(p.Tokens.Add(taken), a.ReturnGems)
	if err != nil {
		return err
	}

	p.Tokens = tokens
	g.Bank = g.Bank.Sub(taken).Add(returned)
	return nil
}

// takeTwoSame takes two tokens of one base color; the bank must hold at
// least four of it before the take.
func (g *Game) takeTwoSame(a Action) error {
	if a.Gem >= Gold {
		return reject(InvalidActionShape, "cannot take %s with this action", a.Gem)
	}
	if g.Bank[a.Gem] < 4 {
		return reject(InsufficientBank, "need 4 %s in bank to take 2, have %d", a.Gem, g.Bank[a.Gem])
	}

	taken := Single(a.Gem, 2)
	p := g.CurrentPlayer()
	tokens, returned, err := settleReturns(p.Tokens.Add(taken), a.ReturnGems)
	if err != nil {
		return err
	}

	p.Tokens = tokens
	g.Bank = g.Bank.Sub(taken).Add(returned)
	return nil
}

// reserveVisible moves a face-up card into the player's private reserve,
// granting one gold if the bank has any.
func (g *Game) reserveVisible(a Action) error {
	p := g.CurrentPlayer()
	if len(p.Reserved) >= MaxReserved {
		return reject(ReserveLimitExceeded, "already holding %d reserved cards", MaxReserved)
	}
	card, tier, idx, found := g.visibleCard(a.CardID)
	if !found {
		return reject(CardNotFound, "no visible card %q", a.CardID)
	}

	var gold GemCount
	if g.Bank[Gold] > 0 {
		gold = Single(Gold, 1)
	}
	tokens, returned, err := settleReturns(p.Tokens.Add(gold), a.ReturnGems)
	if err != nil {
		return err
	}

	g.removeVisible(tier, idx)
	p.Reserved = append(p.Reserved, card)
	p.Tokens = tokens
	g.Bank = g.Bank.Sub(gold).Add(returned)
	return nil
}

// reserveFromDeck blind-reserves the top card of a tier's deck. The card's
// identity is revealed only to the reserving player.
func (g *Game) reserveFromDeck(a Action) error {
	if a.Tier < 1 || a.Tier > 3 {
		return reject(InvalidActionShape, "tier %d out of range", a.Tier)
	}
	p := g.CurrentPlayer()
	if len(p.Reserved) >= MaxReserved {
		return reject(ReserveLimitExceeded, "already holding %d reserved cards", MaxReserved)
	}
	deck := g.Decks[a.Tier]
	if len(deck) == 0 {
		return reject(CardNotFound, "tier %d deck is empty", a.Tier)
	}

	var gold GemCount
	if g.Bank[Gold] > 0 {
		gold = Single(Gold, 1)
	}
	tokens, returned, err := settleReturns(p.Tokens.Add(gold), a.ReturnGems)
	if err != nil {
		return err
	}

	p.Reserved = append(p.Reserved, deck[0])
	g.Decks[a.Tier] = deck[1:]
	p.Tokens = tokens
	g.Bank = g.Bank.Sub(gold).Add(returned)
	return nil
}

// purchaseVisible buys a face-up card, refilling its slot from the deck.
func (g *Game) purchaseVisible(a Action) error {
	card, tier, idx, found := g.visibleCard(a.CardID)
	if !found {
		return reject(CardNotFound, "no visible card %q", a.CardID)
	}
	p := g.CurrentPlayer()
	payment, err := p.paymentFor(card.Cost)
	if err != nil {
		return err
	}

	g.removeVisible(tier, idx)
	g.settlePurchase(p, card, payment)
	return nil
}

// purchaseReserved buys a card out of the player's own reserve.
func (g *Game) purchaseReserved(a Action) error {
	p := g.CurrentPlayer()
	idx := -1
	for i, c := range p.Reserved {
		if c.ID == a.CardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return reject(CardNotFound, "no reserved card %q", a.CardID)
	}
	card := p.Reserved[idx]
	payment, err := p.paymentFor(card.Cost)
	if err != nil {
		return err
	}

	p.Reserved = append(p.Reserved[:idx:idx], p.Reserved[idx+1:]...)
	g.settlePurchase(p, card, payment)
	return nil
}

// settlePurchase commits an already-validated purchase: pays the bank,
// grants the card's bonus and points, then runs the noble check.
func (g *Game) settlePurchase(p *Player, card Card, payment GemCount) {
	p.Tokens = p.Tokens.Sub(payment)
	g.Bank = g.Bank.Add(payment)
	p.Cards = append(p.Cards, card)
	p.Bonuses[card.Bonus]++
	p.Points += card.Points
	g.awardNoble(p)
}

// awardNoble grants at most one noble per purchase. Among multiple eligible
// nobles the lowest id wins.
func (g *Game) awardNoble(p *Player) {
	best := -1
	for i, n := range g.Nobles {
		if !n.Met(p.Bonuses) {
			continue
		}
		if best < 0 || n.ID < g.Nobles[best].ID {
			best = i
		}
	}
	if best < 0 {
		return
	}
	noble := g.Nobles[best]
	g.Nobles = append(g.Nobles[:best:best], g.Nobles[best+1:]...)
	p.Nobles = append(p.Nobles, noble)
	p.Points += noble.Points
}

// paymentFor computes the tokens the player must surrender for cost:
// bonuses first, then matching tokens, any remaining shortfall in gold.
// Returns InsufficientPlayerFunds when gold cannot cover the shortfall.
func (p *Player) paymentFor(cost GemCount) (GemCount, error) {
	var payment GemCount
	goldNeeded := 0
	for _, c := range BaseGems() {
		remaining := cost[c] - p.Bonuses[c]
		if remaining <= 0 {
			continue
		}
		pay := remaining
		if pay > p.Tokens[c] {
			pay = p.Tokens[c]
		}
		payment[c] = pay
		goldNeeded += remaining - pay
	}
	if goldNeeded > p.Tokens[Gold] {
		return GemCount{}, reject(InsufficientPlayerFunds, "short %d gold", goldNeeded-p.Tokens[Gold])
	}
	payment[Gold] = goldNeeded
	return payment, nil
}

// settleReturns enforces the mandatory return step. tokens is the player's
// holding after the action's gains; when it exceeds MaxTokens the returns
// list must total exactly the excess and name only held colors. When no
// return is required the list is ignored.
func settleReturns(tokens GemCount, returns []Gem) (GemCount, GemCount, error) {
	excess := tokens.Total() - MaxTokens
	if excess <= 0 {
		return tokens, GemCount{}, nil
	}
	if len(returns) != excess {
		return GemCount{}, GemCount{}, reject(ReturnCountMismatch,
			"holding %d tokens, must return exactly %d, got %d", tokens.Total(), excess, len(returns))
	}
	var returned GemCount
	for _, gem := range returns {
		if gem >= NumGems {
			return GemCount{}, GemCount{}, reject(ReturnCountMismatch, "invalid gem in returns")
		}
		if tokens[gem] == 0 {
			return GemCount{}, GemCount{}, reject(ReturnCountMismatch, "returning %s not held", gem)
		}
		tokens[gem]--
		returned[gem]++
	}
	return tokens, returned, nil
}

// sortGems orders a gem list canonically; used by legal-action enumeration
// so generated actions are deterministic.
func sortGems(gems []Gem) {
	sort.Slice(gems, func(i, j int) bool { return gems[i] < gems[j] })
}
