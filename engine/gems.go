package engine

import (
	"encoding/json"
	"fmt"
)

// Gem identifies a token color. The five base colors appear on cards as
// costs and bonuses; Gold exists only as a wildcard token.
type Gem uint8

const (
	Diamond Gem = iota // white
	Sapphire           // blue
	Emerald            // green
	Ruby               // red
	Onyx               // black
	Gold               // wildcard, tokens only

	NumGems = 6
)

var gemNames = [NumGems]string{"diamond", "sapphire", "emerald", "ruby", "onyx", "gold"}

// BaseGems lists the five card-cost colors, excluding gold.
func BaseGems() [5]Gem {
	return [5]Gem{Diamond, Sapphire, Emerald, Ruby, Onyx}
}

func (g Gem) String() string {
	if int(g) < len(gemNames) {
		return gemNames[g]
	}
	return fmt.Sprintf("gem(%d)", uint8(g))
}

// ParseGem maps a wire name back to a Gem.
func ParseGem(s string) (Gem, bool) {
	for i, name := range gemNames {
		if s == name {
			return Gem(i), true
		}
	}
	return 0, false
}

// MarshalJSON encodes the gem as its color name.
func (g Gem) MarshalJSON() ([]byte, error) {
	if int(g) >= len(gemNames) {
		return nil, fmt.Errorf("invalid gem %d", uint8(g))
	}
	return json.Marshal(gemNames[g])
}

// UnmarshalJSON decodes a color name.
func (g *Gem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseGem(s)
	if !ok {
		return fmt.Errorf("unknown gem %q", s)
	}
	*g = parsed
	return nil
}

// GemCount is a fixed vector of token counts indexed by Gem. It serves as
// bank contents, player holdings, card costs (gold always zero), card-bonus
// totals and noble requirements.
type GemCount [NumGems]int

// Total returns the sum over all colors including gold.
func (gc GemCount) Total() int {
	n := 0
	for _, v := range gc {
		n += v
	}
	return n
}

// Add returns gc with other added per color.
func (gc GemCount) Add(other GemCount) GemCount {
	for i, v := range other {
		gc[i] += v
	}
	return gc
}

// Sub returns gc with other subtracted per color.
func (gc GemCount) Sub(other GemCount) GemCount {
	for i, v := range other {
		gc[i] -= v
	}
	return gc
}

// AtLeast reports whether gc has at least other's count of every color.
func (gc GemCount) AtLeast(other GemCount) bool {
	for i, v := range other {
		if gc[i] < v {
			return false
		}
	}
	return true
}

// Single returns a vector holding n of one color.
func Single(g Gem, n int) GemCount {
	var gc GemCount
	gc[g] = n
	return gc
}

type gemCountJSON struct {
	Diamond  int `json:"diamond"`
	Sapphire int `json:"sapphire"`
	Emerald  int `json:"emerald"`
	Ruby     int `json:"ruby"`
	Onyx     int `json:"onyx"`
	Gold     int `json:"gold"`
}

// MarshalJSON encodes the vector as a per-color object.
func (gc GemCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(gemCountJSON{
		Diamond:  gc[Diamond],
		Sapphire: gc[Sapphire],
		Emerald:  gc[Emerald],
		Ruby:     gc[Ruby],
		Onyx:     gc[Onyx],
		Gold:     gc[Gold],
	})
}

// UnmarshalJSON decodes a per-color object.
func (gc *GemCount) UnmarshalJSON(data []byte) error {
	var j gemCountJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	gc[Diamond] = j.Diamond
	gc[Sapphire] = j.Sapphire
	gc[Emerald] = j.Emerald
	gc[Ruby] = j.Ruby
	gc[Onyx] = j.Onyx
	gc[Gold] = j.Gold
	return nil
}
