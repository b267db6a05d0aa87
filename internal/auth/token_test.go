package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func jwksServer(t *testing.T, key *rsa.PublicKey, kid string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": kid,
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	server := jwksServer(t, &key.PublicKey, "kid-1")
	defer server.Close()

	v := NewVerifier(server.URL, "https://issuer.example", "nursescript")
	tokenString := signToken(t, key, "kid-1", jwt.MapClaims{
		"sub":   "user-1",
		"email": "ana@example.edu",
		"name":  "Ana Cruz",
		"iss":   "https://issuer.example",
		"aud":   "nursescript",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(context.Background(), tokenString)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ana@example.edu" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejections(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	server := jwksServer(t, &key.PublicKey, "kid-1")
	defer server.Close()

	v := NewVerifier(server.URL, "https://issuer.example", "")
	base := jwt.MapClaims{
		"sub": "user-1",
		"iss": "https://issuer.example",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong signing key", signToken(t, otherKey, "kid-1", base)},
		{"expired", signToken(t, key, "kid-1", jwt.MapClaims{
			"sub": "user-1",
			"iss": "https://issuer.example",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"wrong issuer", signToken(t, key, "kid-1", jwt.MapClaims{
			"sub": "user-1",
			"iss": "https://evil.example",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tt.token); err == nil {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestVerifyMissingToken(t *testing.T) {
	v := NewVerifier("http://unused", "", "")
	_, err := v.Verify(context.Background(), "")
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}
