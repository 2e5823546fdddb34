// Package policy supplies decision functions for bot seats. The room layer
// depends only on the Policy interface; what sits behind it — a seeded RNG
// or a remote learned model — is opaque to the rest of the service.
package policy

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/timopomer/splendor-ai/engine"
	"github.com/timopomer/splendor-ai/internal/view"
)

// Policy ids accepted by seat configuration.
const (
	IDRandom  = "random"
	IDLearned = "learned"
)

// Policy picks one action from the legal set for the seat it is bound to.
// Implementations must treat legal as the complete universe of choices: a
// returned action outside it is discarded by the caller in favor of a
// random fallback.
type Policy interface {
	Decide(ctx context.Context, v view.GameView, legal []engine.Action) (engine.Action, error)
}

// Random picks uniformly from the legal set.
type Random struct {
	rng *rand.Rand
}

// NewRandom builds a seeded random policy. Instances are bound to a single
// seat and invoked under the room's serialization, so the RNG needs no lock.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Decide(_ context.Context, _ view.GameView, legal []engine.Action) (engine.Action, error) {
	if len(legal) == 0 {
		return engine.Action{}, fmt.Errorf("no legal actions")
	}
	return legal[r.rng.Intn(len(legal))], nil
}

// Factory builds policies by id for seat configuration.
type Factory struct {
	// LearnedURL is the inference endpoint for the learned policy; when
	// empty, configuring a learned seat is refused.
	LearnedURL string
}

// Supported reports whether the id can be bound given the factory's config.
func (f Factory) Supported(id string) bool {
	switch id {
	case IDRandom:
		return true
	case IDLearned:
		return f.LearnedURL != ""
	}
	return false
}

// New builds the policy bound to one seat. The seed individualizes random
// seats so they do not mirror each other.
func (f Factory) New(id string, seed int64) (Policy, error) {
	switch id {
	case IDRandom:
		return NewRandom(seed), nil
	case IDLearned:
		if f.LearnedURL == "" {
			return nil, fmt.Errorf("learned policy not configured")
		}
		return NewRemote(f.LearnedURL), nil
	}
	return nil, fmt.Errorf("unknown policy %q", id)
}
