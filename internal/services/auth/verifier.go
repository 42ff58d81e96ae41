package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the identity claims extracted from a verified token.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Verifier validates JWT bearer tokens against a JWKS endpoint.
type Verifier struct {
	jwks     *JWKSManager
	issuer   string
	audience string
}

// NewVerifier creates a verifier for the given issuer. audience is optional;
// when empty the audience claim is not checked.
func NewVerifier(jwks *JWKSManager, issuer, audience string) *Verifier {
	return &Verifier{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
	}
}

// Verify checks the token's signature, expiry, issuer, and audience, and
// returns its identity claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	keys, err := v.jwks.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &Claims{Subject: token.Subject()}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if name, ok := token.Get("name"); ok {
		if s, ok := name.(string); ok {
			claims.Name = s
		}
	}
	return claims, nil
}
