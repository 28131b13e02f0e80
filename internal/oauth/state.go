package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateIssuer = "choretally"

// State is the data carried through the provider redirect.
type State struct {
	Nonce string
	Next  string
}

type stateClaims struct {
	Nonce string `json:"nonce"`
	Next  string `json:"next,omitempty"`
	jwt.RegisteredClaims
}

// StateSigner issues and checks HMAC-signed state tokens. The nonce inside
// the token is also set as a cookie, binding the state to the browser that
// started the sign-in.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewStateSigner(secret []byte, ttl time.Duration) *StateSigner {
	return &StateSigner{secret: secret, ttl: ttl}
}

// Sign returns a state token for a sign-in that should end at next, and the
// nonce to store in the browser.
func (s *StateSigner) Sign(next string) (token, nonce string, err error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}
	nonce = hex.EncodeToString(b)

	now := time.Now()
	claims := stateClaims{
		Nonce: nonce,
		Next:  SafeNext(next),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign state: %w", err)
	}
	return token, nonce, nil
}

// Verify checks a state token's signature and expiry and that its nonce
// matches the one stored in the browser.
func (s *StateSigner) Verify(token, nonce string) (*State, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if nonce == "" || claims.Nonce != nonce {
		return nil, errors.New("state nonce mismatch")
	}
	return &State{Nonce: claims.Nonce, Next: claims.Next}, nil
}

// SafeNext keeps next only if it is a local absolute path.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
