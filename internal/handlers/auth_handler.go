package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/url"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	oauthStateCookie = "goodie_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	authService  *services.AuthService
	resetService *services.ResetService
	secureCookie bool
}

func NewAuthHandler(authService *services.AuthService, resetService *services.ResetService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService, secureCookie: secureCookie}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		return serviceError(c, err, "register")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{
		Message: "User created successfully",
		User:    dto.NewUserResponse(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	identity, err := h.authService.SignInWithPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, err, "login")
	}
	session, err := h.authService.IssueSession(identity)
	if err != nil {
		return serviceError(c, err, "login")
	}
	return h.respondSession(c, session)
}

func (h *AuthHandler) respondSession(c *fiber.Ctx, session *services.Session) error {
	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt, h.secureCookie)
	return c.JSON(dto.AuthResponse{User: session.User, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.secureCookie)
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

// Session describes the current session. Behind SessionRequired.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return serviceError(c, services.ErrUnauthenticated, "session")
	}
	user, err := h.currentUser(c)
	if err != nil {
		return serviceError(c, err, "session")
	}
	return c.JSON(dto.SessionResponse{User: dto.NewUserResponse(user), ExpiresAt: claims.ExpiresAt.Time})
}

func (h *AuthHandler) Account(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return serviceError(c, err, "account")
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	id, err := sessionUser(c)
	if err != nil {
		return nil, err
	}
	return h.authService.CurrentUser(c.UserContext(), id)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	message, err := h.resetService.RequestReset(c.UserContext(), req.Email)
	if err != nil {
		return serviceError(c, err, "reset_request")
	}
	return c.JSON(dto.MessageResponse{Message: message})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.resetService.ConsumeReset(c.UserContext(), req.Token, req.Password); err != nil {
		return serviceError(c, err, "reset_consume")
	}
	return c.JSON(dto.MessageResponse{Message: "Password has been reset"})
}

// OAuthRedirect starts the authorization code flow. The state value is kept
// in a short-lived cookie and checked on the callback.
func (h *AuthHandler) OAuthRedirect(c *fiber.Ctx) error {
	state, err := newOAuthState()
	if err != nil {
		return serviceError(c, err, "oauth_redirect")
	}
	target, err := h.authService.AuthCodeURL(c.Params("provider"), state)
	if err != nil {
		return serviceError(c, err, "oauth_redirect")
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/oauth",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(target, fiber.StatusFound)
}

func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	expected := c.Cookies(oauthStateCookie)
	c.Cookie(&fiber.Cookie{Name: oauthStateCookie, Path: "/api/auth/oauth", MaxAge: -1, Expires: time.Unix(0, 0)})

	if e := c.Query("error"); e != "" {
		return loginRedirect(c, e)
	}
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		return loginRedirect(c, "invalid-state")
	}

	identity, err := h.authService.SignInWithProvider(c.UserContext(), provider, services.Assertion{Code: c.Query("code")})
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) && !errors.Is(err, services.ErrUnknownProvider) {
			reportError(c, err, "oauth_callback")
		}
		return loginRedirect(c, "oauth-signin")
	}
	session, err := h.authService.IssueSession(identity)
	if err != nil {
		reportError(c, err, "oauth_callback")
		return loginRedirect(c, "oauth-signin")
	}

	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt, h.secureCookie)
	return c.Redirect("/", fiber.StatusFound)
}

// IDTokenSignIn accepts a provider identity token from a native client.
func (h *AuthHandler) IDTokenSignIn(c *fiber.Ctx) error {
	var req dto.IDTokenSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.IDToken == "" {
		return errorJSON(c, fiber.StatusBadRequest, "id_token is required")
	}

	identity, err := h.authService.SignInWithProvider(c.UserContext(), c.Params("provider"), services.Assertion{
		IDToken: req.IDToken, Name: req.Name,
	})
	if err != nil {
		return serviceError(c, err, "id_token_signin")
	}
	session, err := h.authService.IssueSession(identity)
	if err != nil {
		return serviceError(c, err, "id_token_signin")
	}
	return h.respondSession(c, session)
}

func loginRedirect(c *fiber.Ctx, reason string) error {
	return c.Redirect("/auth/login?error="+url.QueryEscape(reason), fiber.StatusFound)
}

func newOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
