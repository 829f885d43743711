package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newGoogleTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("client_secret") != "secret" {
			t.Errorf("unexpected token form: %v", r.Form)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "ya29.access",
			"refresh_token": "1//refresh",
			"id_token":      "eyJ.id.token",
			"token_type":    "Bearer",
			"scope":         "openid email profile",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ya29.access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":            "1122334455",
			"email":          "Jane@Example.com",
			"email_verified": true,
			"name":           "Jane Doe",
			"picture":        "https://lh3.example.com/jane.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogleProvider(srv *httptest.Server) *GoogleProvider {
	p := NewGoogleProvider(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RedirectURL:  "https://shop.example.com/api/auth/oauth/google/callback",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		HTTPClient:   srv.Client(),
	})
	return p
}

func TestGoogleProvider_Verify(t *testing.T) {
	srv := newGoogleTestServer(t)
	p := newTestGoogleProvider(srv)
	before := time.Now()

	profile, err := p.Verify(context.Background(), Assertion{Code: "good-code"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if profile.Provider != "google" || profile.AccountID != "1122334455" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.Email != "Jane@Example.com" || !profile.EmailVerified {
		t.Errorf("email = %q verified=%v", profile.Email, profile.EmailVerified)
	}
	if profile.AccessToken != "ya29.access" || profile.RefreshToken != "1//refresh" || profile.IDToken != "eyJ.id.token" {
		t.Errorf("tokens = %+v", profile)
	}
	if profile.TokenType != "Bearer" || profile.Scope != "openid email profile" {
		t.Errorf("token type/scope = %q/%q", profile.TokenType, profile.Scope)
	}
	if profile.ExpiresAt == nil ||
		profile.ExpiresAt.Before(before.Add(time.Hour)) ||
		profile.ExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want about now+1h", profile.ExpiresAt)
	}
}

func TestGoogleProvider_VerifyFailures(t *testing.T) {
	srv := newGoogleTestServer(t)
	p := newTestGoogleProvider(srv)

	if _, err := p.Verify(context.Background(), Assertion{}); err == nil {
		t.Error("Verify() without a code should fail")
	}
	if _, err := p.Verify(context.Background(), Assertion{Code: "bad-code"}); err == nil {
		t.Error("Verify() with a rejected code should fail")
	}
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{ClientID: "client-id", RedirectURL: "https://shop.example.com/cb"})

	u, err := url.Parse(p.AuthCodeURL("xyz"))
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	q := u.Query()
	if u.Host != "accounts.google.com" {
		t.Errorf("host = %q", u.Host)
	}
	if q.Get("state") != "xyz" || q.Get("client_id") != "client-id" || q.Get("response_type") != "code" {
		t.Errorf("query = %v", q)
	}
	if q.Get("redirect_uri") != "https://shop.example.com/cb" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "openid email profile" || q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Errorf("query = %v", q)
	}
}
