package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultGoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overridable for tests.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	HTTPClient  *http.Client
}

// GoogleProvider signs users in with the OAuth 2.0 authorization code flow.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleProvider(config GoogleConfig) *GoogleProvider {
	endpoint := google.Endpoint
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: config.UserInfoURL,
		httpClient:  config.HTTPClient,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *GoogleProvider) Verify(ctx context.Context, a Assertion) (*FederatedProfile, error) {
	if a.Code == "" {
		return nil, errors.New("google: authorization code is required")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, a.Code)
	if err != nil {
		return nil, fmt.Errorf("google: failed to exchange code: %w", err)
	}

	info, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("google: failed to fetch user info: %w", err)
	}

	profile := &FederatedProfile{
		Provider:      p.Name(),
		AccountID:     info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		AvatarURL:     info.Picture,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
		IDToken:       extraString(token, "id_token"),
		TokenType:     token.Type(),
		Scope:         extraString(token, "scope"),
	}
	if !token.Expiry.IsZero() {
		exp := token.Expiry
		profile.ExpiresAt = &exp
	}
	return profile, nil
}

func (p *GoogleProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("empty sub in user info response")
	}
	return &info, nil
}

func extraString(token *oauth2.Token, key string) string {
	s, _ := token.Extra(key).(string)
	return s
}

var _ RedirectProvider = (*GoogleProvider)(nil)
