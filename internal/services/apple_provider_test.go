package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testAppleKID = "apple-test-key"

func newAppleTestServer(t *testing.T) (*httptest.Server, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	jwks := map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testAppleKID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)
	return srv, key
}

func signAppleToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testAppleKID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func appleClaimsFor(aud string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            appleIssuer,
		"aud":            aud,
		"sub":            "001234.abcdef",
		"email":          "jane@privaterelay.appleid.com",
		"email_verified": "true",
		"iat":            now.Unix(),
		"exp":            now.Add(10 * time.Minute).Unix(),
	}
}

func TestAppleProvider_Verify(t *testing.T) {
	srv, key := newAppleTestServer(t)
	p := NewAppleProvider([]string{"com.example.web", "com.example.ios"}, srv.URL)
	defer p.Close()

	token := signAppleToken(t, key, appleClaimsFor("com.example.ios"))
	profile, err := p.Verify(context.Background(), Assertion{IDToken: token, Name: "Jane"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if profile.Provider != "apple" || profile.AccountID != "001234.abcdef" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.Email != "jane@privaterelay.appleid.com" || !profile.EmailVerified {
		t.Errorf("email = %q verified=%v", profile.Email, profile.EmailVerified)
	}
	if profile.Name != "Jane" || profile.IDToken != token {
		t.Errorf("profile = %+v", profile)
	}
}

func TestAppleProvider_Rejects(t *testing.T) {
	srv, key := newAppleTestServer(t)
	p := NewAppleProvider([]string{"com.example.web"}, srv.URL)
	defer p.Close()

	otherKey, _ := rsa.GenerateKey(rand.Reader, 2048)

	expired := appleClaimsFor("com.example.web")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongIssuer := appleClaimsFor("com.example.web")
	wrongIssuer["iss"] = "https://evil.example.com"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong audience", signAppleToken(t, key, appleClaimsFor("com.other.app"))},
		{"expired", signAppleToken(t, key, expired)},
		{"wrong issuer", signAppleToken(t, key, wrongIssuer)},
		{"wrong key", signAppleToken(t, otherKey, appleClaimsFor("com.example.web"))},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Verify(context.Background(), Assertion{IDToken: tt.token}); err == nil {
				t.Error("Verify() should fail")
			}
		})
	}
}

func TestAppleBool(t *testing.T) {
	for in, want := range map[string]bool{`true`: true, `"true"`: true, `false`: false, `"false"`: false} {
		var b appleBool
		if err := json.Unmarshal([]byte(in), &b); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if bool(b) != want {
			t.Errorf("appleBool(%s) = %v, want %v", in, b, want)
		}
	}
}
