package session

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenIntrospection holds the locally readable metadata of a credential
// token. For opaque (non-JWT) tokens every field except Opaque is zero;
// opaque tokens are never treated as expired on the client side.
type TokenIntrospection struct {
	Opaque    bool       // True when the token is not a parseable JWT
	Subject   string     // sub claim, when present
	ExpiresAt *time.Time // exp claim, when present
	IssuedAt  *time.Time // iat claim, when present
}

// Expired reports whether the token is known to be past its expiry at the
// given instant. Opaque tokens and JWTs without an exp claim report false;
// only the server can judge those.
func (ti TokenIntrospection) Expired(now time.Time) bool {
	if ti.Opaque || ti.ExpiresAt == nil {
		return false
	}
	return ti.ExpiresAt.Before(now)
}

// Introspect reads the claims of a credential token without verifying its
// signature. Verification is the server's job; the client only uses this to
// avoid round trips with a credential it can already see is expired.
func Introspect(rawToken string) TokenIntrospection {
	if strings.TrimSpace(rawToken) == "" {
		return TokenIntrospection{Opaque: true}
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return TokenIntrospection{Opaque: true}
	}

	var ti TokenIntrospection
	if sub, err := token.Claims.GetSubject(); err == nil {
		ti.Subject = sub
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		ti.ExpiresAt = &exp.Time
	}
	if iat, err := token.Claims.GetIssuedAt(); err == nil && iat != nil {
		ti.IssuedAt = &iat.Time
	}
	return ti
}
