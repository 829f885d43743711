package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/throttle"
)

// ResetRequestedMessage is returned for every reset request so callers cannot
// tell whether an account exists.
const ResetRequestedMessage = "If an account with that email exists, a password reset link has been sent."

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

type ResetService struct {
	users    repository.UserRepository
	hasher   *auth.PasswordHasher
	mailer   mailer.Sender
	throttle throttle.Limiter
	metrics  metrics.Recorder
	baseURL  string
	now      func() time.Time
	random   io.Reader
}

// NewResetService builds the reset flow. limiter may be nil to disable throttling.
func NewResetService(
	users repository.UserRepository,
	hasher *auth.PasswordHasher,
	sender mailer.Sender,
	limiter throttle.Limiter,
	recorder metrics.Recorder,
	baseURL string,
) *ResetService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &ResetService{
		users:    users,
		hasher:   hasher,
		mailer:   sender,
		throttle: limiter,
		metrics:  recorder,
		baseURL:  baseURL,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// RequestReset issues a reset token for the account behind email, if any, and
// emails the link. The result is the same message whether or not the account
// exists; only a missing email is reported.
func (s *ResetService) RequestReset(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", invalid("email", "email is required")
	}

	outcome, err := s.requestReset(ctx, email)
	if err != nil {
		slog.Error("password reset request failed", "action", "reset_request", "error", err)
		outcome = "error"
	}
	s.metrics.RecordReset("request", outcome)
	return ResetRequestedMessage, nil
}

func (s *ResetService) requestReset(ctx context.Context, email string) (string, error) {
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, email)
		if err != nil {
			// Fail open: a Redis outage must not block password recovery.
			slog.Warn("reset throttle unavailable", "error", err)
		} else if !allowed {
			return "throttled", nil
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "unknown", nil
	}
	if err != nil {
		return "", err
	}

	token, err := s.newToken()
	if err != nil {
		return "", err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return "", err
	}

	msg := mailer.ResetPasswordMessage(user.Email, s.ResetLink(token))
	if err := s.mailer.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to send reset email to user %s: %w", user.ID, err)
	}
	return "issued", nil
}

func (s *ResetService) ResetLink(token string) string {
	return s.baseURL + "/auth/reset-password/" + token
}

// newToken returns 32 random bytes, base64url-encoded without padding.
func (s *ResetService) newToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ConsumeReset sets a new password if token matches a live reset token. A
// token is valid up to and including its expiry instant and works once.
func (s *ResetService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByResetToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordReset("consume", "invalid")
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return err
	}

	now := s.now()
	if user.ResetTokenExpiresAt == nil || now.After(*user.ResetTokenExpiresAt) {
		s.metrics.RecordReset("consume", "expired")
		return ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	consumed, err := s.users.ConsumeResetToken(ctx, user.ID, token, hash, now)
	if err != nil {
		return err
	}
	if !consumed {
		s.metrics.RecordReset("consume", "invalid")
		return ErrInvalidOrExpiredToken
	}

	s.metrics.RecordReset("consume", "success")
	slog.Info("password reset", "user_id", user.ID.String())
	return nil
}
