package httpapi

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"storefront/backend/internal/domain"
)

// tokenLifetime is the outer bound on a bearer token. The server-side
// session inside it slides on use and is the authoritative expiry; the JWT
// lifetime only caps how long a stolen token stays parseable.
const tokenLifetime = 24 * time.Hour

type storefrontClaims struct {
	jwtlib.RegisteredClaims
	Role      string `json:"role"`
	SessionID string `json:"sid"`
}

// TokenIssuer signs and parses the HS256 bearer tokens that wrap opaque
// session ids.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	if secret == "" {
		secret = "dev-change-me"
	}
	return &TokenIssuer{secret: []byte(secret)}
}

func (t *TokenIssuer) Issue(user domain.User, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := storefrontClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(tokenLifetime)),
			Issuer:    "storefront",
		},
		Role:      user.Role,
		SessionID: sessionID,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies the signature and returns the embedded actor and session id.
func (t *TokenIssuer) Parse(tokenStr string) (domain.Actor, string, error) {
	claims := &storefrontClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(tok *jwtlib.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, "", errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, "", errors.New("invalid token subject")
	}
	if claims.SessionID == "" {
		return domain.Actor{}, "", errors.New("token carries no session")
	}
	return domain.Actor{UserID: sub, Role: claims.Role}, claims.SessionID, nil
}
