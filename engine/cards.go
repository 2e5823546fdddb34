package engine

// Card is a development card. Owning it grants a permanent one-color
// discount (Bonus) and possibly points.
type Card struct {
	ID     string   `json:"id"`
	Tier   int      `json:"tier"` // 1..3
	Bonus  Gem      `json:"bonus"`
	Points int      `json:"points"`
	Cost   GemCount `json:"cost"` // gold component is always zero
}

// Noble is a tile awarded when a player's card bonuses meet its
// requirement. Requirements are in bonuses only, never tokens.
type Noble struct {
	ID           string   `json:"id"`
	Points       int      `json:"points"`
	Requirements GemCount `json:"requirements"`
}

// Met reports whether bonuses satisfy the noble's requirement on every
// required color.
func (n Noble) Met(bonuses GemCount) bool {
	return bonuses.AtLeast(n.Requirements)
}
