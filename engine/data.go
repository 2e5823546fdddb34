package engine

import "fmt"

// The base card set is rotationally symmetric: every tier is a fixed list of
// cost templates instantiated once per bonus color. A template's Others
// field is the cost over the four non-bonus colors in cyclic order starting
// after the bonus color; Own is the cost in the bonus color itself.
type cardTemplate struct {
	Others [4]int
	Own    int
	Points int
}

var tierTemplates = [4][]cardTemplate{
	1: {
		{Others: [4]int{1, 1, 1, 1}},
		{Others: [4]int{1, 2, 1, 1}},
		{Others: [4]int{2, 2, 0, 1}},
		{Others: [4]int{0, 0, 1, 3}, Own: 1},
		{Others: [4]int{0, 0, 2, 1}},
		{Others: [4]int{2, 0, 2, 0}},
		{Others: [4]int{0, 0, 3, 0}},
		{Others: [4]int{0, 4, 0, 0}, Points: 1},
	},
	2: {
		{Others: [4]int{3, 2, 2, 0}, Points: 1},
		{Others: [4]int{2, 3, 0, 3}, Points: 1},
		{Others: [4]int{1, 4, 2, 0}, Points: 2},
		{Others: [4]int{0, 5, 3, 0}, Points: 2},
		{Others: [4]int{0, 0, 5, 0}, Points: 2},
		{Own: 6, Points: 3},
	},
	3: {
		{Others: [4]int{3, 3, 5, 3}, Points: 3},
		{Others: [4]int{0, 0, 7, 0}, Points: 4},
		{Others: [4]int{0, 0, 6, 3}, Own: 3, Points: 4},
		{Others: [4]int{0, 0, 7, 0}, Own: 3, Points: 5},
	},
}

// instantiate builds the card for one bonus color from a template.
func (t cardTemplate) instantiate(tier int, bonus Gem, ordinal int) Card {
	var cost GemCount
	for i, n := range t.Others {
		// Cyclic order over the five base colors, starting after bonus.
		color := Gem((int(bonus) + 1 + i) % 5)
		cost[color] = n
	}
	cost[bonus] += t.Own
	return Card{
		ID:     fmt.Sprintf("t%d-%s-%d", tier, bonus, ordinal),
		Tier:   tier,
		Bonus:  bonus,
		Points: t.Points,
		Cost:   cost,
	}
}

// BaseCards returns the full development card set grouped by tier:
// 40 tier-1, 30 tier-2 and 20 tier-3 cards, evenly split over the five
// bonus colors. Returned slices are fresh copies safe to shuffle.
func BaseCards() map[int][]Card {
	decks := make(map[int][]Card, 3)
	for tier := 1; tier <= 3; tier++ {
		templates := tierTemplates[tier]
		deck := make([]Card, 0, len(templates)*5)
		for _, bonus := range BaseGems() {
			for i, tpl := range templates {
				deck = append(deck, tpl.instantiate(tier, bonus, i+1))
			}
		}
		decks[tier] = deck
	}
	return decks
}

// BaseNobles returns the ten noble tiles, each worth 3 points. Five require
// four bonuses in two colors, five require three bonuses in three colors.
func BaseNobles() []Noble {
	nobles := make([]Noble, 0, 10)
	for i := 0; i < 5; i++ {
		var req GemCount
		req[Gem(i)] = 4
		req[Gem((i+1)%5)] = 4
		nobles = append(nobles, Noble{
			ID:           fmt.Sprintf("noble-%02d", i+1),
			Points:       3,
			Requirements: req,
		})
	}
	for i := 0; i < 5; i++ {
		var req GemCount
		req[Gem(i)] = 3
		req[Gem((i+1)%5)] = 3
		req[Gem((i+2)%5)] = 3
		nobles = append(nobles, Noble{
			ID:           fmt.Sprintf("noble-%02d", i+6),
			Points:       3,
			Requirements: req,
		})
	}
	return nobles
}
