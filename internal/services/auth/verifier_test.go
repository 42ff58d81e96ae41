package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type testIssuer struct {
	key    jwk.Key
	server *httptest.Server
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	key, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to wrap key: %v", err)
	}
	if err := key.Set(jwk.KeyIDKey, "test-key"); err != nil {
		t.Fatalf("failed to set kid: %v", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("failed to set alg: %v", err)
	}

	public, err := key.PublicKey()
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		t.Fatalf("failed to add key to set: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(server.Close)

	return &testIssuer{key: key, server: server}
}

func (i *testIssuer) sign(t *testing.T, issuer, audience, subject string, expiresIn time.Duration) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Issuer(issuer).
		Subject(subject).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(expiresIn)).
		Claim("email", "ops@example.com").
		Claim("name", "Ops Admin")
	if audience != "" {
		builder = builder.Audience([]string{audience})
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, i.key))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	const issuerURL = "https://issuer.example.com"

	tests := []struct {
		name        string
		issuer      string
		audience    string
		expiresIn   time.Duration
		expectError bool
	}{
		{
			name:      "valid token",
			issuer:    issuerURL,
			expiresIn: time.Hour,
		},
		{
			name:      "valid token with audience",
			issuer:    issuerURL,
			audience:  "northstar-admin",
			expiresIn: time.Hour,
		},
		{
			name:        "wrong issuer",
			issuer:      "https://impostor.example.com",
			expiresIn:   time.Hour,
			expectError: true,
		},
		{
			name:        "expired token",
			issuer:      issuerURL,
			expiresIn:   -time.Minute,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			iss := newTestIssuer(t)
			verifier := NewVerifier(NewJWKSManager(iss.server.URL), issuerURL, tt.audience)
			token := iss.sign(t, tt.issuer, tt.audience, "admin-1", tt.expiresIn)

			claims, err := verifier.Verify(context.Background(), token)
			if tt.expectError {
				if err == nil {
					t.Fatal("Verify() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if claims.Subject != "admin-1" {
				t.Errorf("Subject = %s, want admin-1", claims.Subject)
			}
			if claims.Email != "ops@example.com" {
				t.Errorf("Email = %s, want ops@example.com", claims.Email)
			}
		})
	}
}

func TestVerifyRejectsAudienceMismatch(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	verifier := NewVerifier(NewJWKSManager(iss.server.URL), "https://issuer.example.com", "northstar-admin")
	token := iss.sign(t, "https://issuer.example.com", "another-service", "admin-1", time.Hour)

	if _, err := verifier.Verify(context.Background(), token); err == nil {
		t.Fatal("Verify() expected audience mismatch error, got nil")
	}
}
