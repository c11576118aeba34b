// Package authheaders builds the outbound headers a hosted facilitator
// client attaches to its requests: a short-lived JWT bearer token plus a
// Correlation-Context header identifying the calling SDK (§4.7).
package authheaders

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 300 * time.Second

// claims is the JWT payload the hosted facilitator expects: issuer and
// subject both carry the API key ID, audience is the request host with any
// scheme stripped, and uri pins the token to one request path.
type claims struct {
	jwt.RegisteredClaims
	URI string `json:"uri"`
}

// JWTIssuer signs short-lived HS256 bearer tokens for one API key pair.
type JWTIssuer struct {
	keyID     string
	keySecret []byte
}

// NewJWTIssuer builds a JWTIssuer from a hosted-facilitator API key ID and secret.
func NewJWTIssuer(keyID, keySecret string) *JWTIssuer {
	return &JWTIssuer{keyID: keyID, keySecret: []byte(keySecret)}
}

// Issue signs a token scoped to one request host and path. The token
// expires 300 seconds after issuance; callers should mint a fresh one per
// request rather than caching across that window.
func (i *JWTIssuer) Issue(requestHost, requestPath string) (string, error) {
	aud := strings.TrimPrefix(requestHost, "https://")
	aud = strings.TrimPrefix(aud, "http://")

	now := time.Now()
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.keyID,
			Subject:   i.keyID,
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
		URI: requestPath,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(i.keySecret)
	if err != nil {
		return "", fmt.Errorf("authheaders: signing token: %w", err)
	}
	return signed, nil
}

// BearerHeader signs a token for the given request and formats it as an
// Authorization header value.
func (i *JWTIssuer) BearerHeader(requestHost, requestPath string) (string, error) {
	token, err := i.Issue(requestHost, requestPath)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
