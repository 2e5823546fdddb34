package engine

import "fmt"

// RejectionKind classifies why an action was refused. Rejections are
// ordinary return values: the game state is untouched when one is returned.
type RejectionKind string

const (
	NotYourTurn             RejectionKind = "not_your_turn"
	GameNotStarted          RejectionKind = "game_not_started"
	GameAlreadyOver         RejectionKind = "game_already_over"
	InvalidActionShape      RejectionKind = "invalid_action_shape"
	InsufficientBank        RejectionKind = "insufficient_bank"
	InsufficientPlayerFunds RejectionKind = "insufficient_player_funds"
	ReserveLimitExceeded    RejectionKind = "reserve_limit_exceeded"
	CardNotFound            RejectionKind = "card_not_found"
	ReturnCountMismatch     RejectionKind = "return_count_mismatch"
)

// Rejection is the error type returned by Apply for rule violations.
type Rejection struct {
	Kind   RejectionKind
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
}

func reject(kind RejectionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
