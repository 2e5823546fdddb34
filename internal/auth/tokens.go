// Package auth issues and verifies the bearer tokens that bind a client to
// a seat. A token proves nothing beyond "holder of this seat in this room";
// there are no user accounts.
package auth

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SeatClaims is the JWT payload for a seat token. TokenID lets a room
// invalidate previously issued tokens when a seat is reconfigured.
type SeatClaims struct {
	RoomCode string `json:"room"`
	Seat     int    `json:"seat"`
	TokenID  string `json:"tid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies seat tokens with an HMAC secret.
type Issuer struct {
	secret []byte
}

// NewIssuer builds an issuer from the configured secret. An empty secret
// gets a random per-process one: tokens then survive exactly as long as the
// rooms they belong to, which is the intended lifetime.
func NewIssuer(secret string) (*Issuer, error) {
	if secret != "" {
		return &Issuer{secret: []byte(secret)}, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}
	return &Issuer{secret: buf}, nil
}

// Issue mints a token for a seat and returns it with its token id.
func (i *Issuer) Issue(roomCode string, seat int) (token, tokenID string, err error) {
	tokenID = uuid.NewString()
	claims := SeatClaims{
		RoomCode: roomCode,
		Seat:     seat,
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign seat token: %w", err)
	}
	return token, tokenID, nil
}

// Verify parses and validates a seat token.
func (i *Issuer) Verify(token string) (*SeatClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SeatClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*SeatClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid seat token")
	}
	return claims, nil
}
