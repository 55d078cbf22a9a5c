package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "github.com/KunalSingh5431/smartPDF/internal/shared/auth"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server/respond"
	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
	"github.com/KunalSingh5431/smartPDF/internal/users"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateLifetime      = 5 * time.Minute
)

// UserUpserter resolves a Google identity to a local account.
type UserUpserter interface {
	UpsertGoogle(ctx context.Context, sub, email, name string) (users.User, error)
}

// GoogleService signs users in with Google and hands the UI a JWT through
// the token query parameter of uiRedirect.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	userInfoURL string
	states      *pendingStates
	users       UserUpserter
}

func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, users UserUpserter) *GoogleService {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
	return &GoogleService{
		oauthConfig: cfg,
		uiRedirect:  uiRedirect,
		userInfoURL: defaultUserInfoURL,
		states:      &pendingStates{expiry: map[string]time.Time{}},
		users:       users,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth/google")
	g.GET("/start", s.requireConfigured, s.start)
	g.GET("/callback", s.requireConfigured, s.callback)
}

func (s *GoogleService) requireConfigured(c *gin.Context) {
	cfg := s.oauthConfig
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" || s.users == nil {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}
	c.Next()
}

func (s *GoogleService) start(c *gin.Context) {
	state := uuid.NewString()
	s.states.issue(state, time.Now().Add(stateLifetime))
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state))
}

func (s *GoogleService) callback(c *gin.Context) {
	target, fail := s.completeLogin(c.Request.Context(), c.Query("state"), c.Query("code"))
	if fail != nil {
		if fail.cause != nil {
			telemetry.Warn("auth.google_failed", map[string]any{"reason": fail.message, "error": fail.cause.Error()})
		}
		respond.Error(c, fail.status, fail.code, fail.message, nil)
		return
	}
	c.Redirect(http.StatusFound, target)
}

type loginFailure struct {
	status  int
	code    string
	message string
	cause   error
}

func badRequest(msg string, cause error) *loginFailure {
	return &loginFailure{status: http.StatusBadRequest, code: "invalid_request", message: msg, cause: cause}
}

// completeLogin turns an authorization code into the UI redirect carrying a
// signed JWT for the matching local account.
func (s *GoogleService) completeLogin(ctx context.Context, state, code string) (string, *loginFailure) {
	if state == "" || code == "" {
		return "", badRequest("missing state or code", nil)
	}
	if !s.states.redeem(state) {
		return "", badRequest("invalid or expired state", nil)
	}

	tok, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", badRequest("failed to exchange code", err)
	}
	profile, err := s.profile(ctx, tok)
	if err != nil {
		return "", &loginFailure{status: http.StatusBadGateway, code: "auth_failed", message: "failed to fetch user profile", cause: err}
	}

	user, err := s.users.UpsertGoogle(ctx, profile.subject(), profile.Email, profile.Name)
	if err != nil {
		return "", &loginFailure{status: http.StatusInternalServerError, code: "internal_error", message: "failed to resolve account", cause: err}
	}
	signed, err := sharedauth.SignJWT(user.ID, user.Email, user.Name)
	if err != nil {
		return "", &loginFailure{status: http.StatusInternalServerError, code: "internal_error", message: "failed to issue token", cause: err}
	}
	target, err := withTokenParam(s.uiRedirect, signed)
	if err != nil {
		return "", &loginFailure{status: http.StatusInternalServerError, code: "internal_error", message: "failed to redirect", cause: err}
	}

	telemetry.Info("auth.google_login", map[string]any{"user_id": user.ID})
	return target, nil
}

// googleProfile covers both the v2 ("id") and OIDC ("sub") userinfo shapes.
type googleProfile struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p googleProfile) subject() string {
	if p.Sub != "" {
		return p.Sub
	}
	return p.ID
}

func (s *GoogleService) profile(ctx context.Context, tok *oauth2.Token) (googleProfile, error) {
	var p googleProfile
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return p, err
	}
	resp, err := s.oauthConfig.Client(ctx, tok).Do(req)
	if err != nil {
		return p, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return p, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, fmt.Errorf("userinfo: %w", err)
	}
	if p.subject() == "" || p.Email == "" {
		return p, errors.New("userinfo: profile lacks subject or email")
	}
	return p, nil
}

// pendingStates holds issued OAuth states until they are redeemed or expire.
// It is per process, so start and callback must reach the same instance.
type pendingStates struct {
	mu     sync.Mutex
	expiry map[string]time.Time
}

func (p *pendingStates) issue(state string, until time.Time) {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, exp := range p.expiry {
		if exp.Before(now) {
			delete(p.expiry, k)
		}
	}
	p.expiry[state] = until
}

// redeem reports whether state was issued and is still live. A state is
// accepted at most once.
func (p *pendingStates) redeem(state string) bool {
	p.mu.Lock()
	exp, ok := p.expiry[state]
	delete(p.expiry, state)
	p.mu.Unlock()
	return ok && time.Now().Before(exp)
}

func withTokenParam(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("ui redirect url is not set")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
