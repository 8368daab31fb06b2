package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier is the thin hook §1 reserves for the external authz
// collaborator: the kernel checks a bearer token's signature and hands
// back its claims, but never decides what a claim is allowed to do.
// Policy enforcement (which sessions may load which ontology, run which
// statement) lives entirely outside this package.
type TokenVerifier struct {
	keyFunc jwt.Keyfunc
}

// NewTokenVerifier wraps a jwt.Keyfunc (typically a fixed HMAC secret or
// a JWKS lookup supplied by the caller) for use on begin_session.
func NewTokenVerifier(keyFunc jwt.Keyfunc) *TokenVerifier {
	return &TokenVerifier{keyFunc: keyFunc}
}

// Verify checks tokenString's signature and expiry and returns its
// claims. It does not look at any claim's value.
func (v *TokenVerifier) Verify(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("session: token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("session: token is not valid")
	}
	return claims, nil
}
