package apple

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/duowatch/duowatch/internal/config"
)

// Identity is what a verified Apple id_token tells us about the caller
type Identity struct {
	Subject string
	Email   string
}

// Service handles the Apple Sign-In OAuth dance. The OIDC provider keeps the
// JWKS signing keys cached and refreshes them on rotation.
type Service struct {
	enabled  bool
	oauthCfg oauth2.Config
	verifier *oidc.IDTokenVerifier
	logger   *logrus.Logger
}

// NewService discovers the Apple OIDC issuer and prepares the verifier.
// Discovery is retried briefly since it runs once at process start.
func NewService(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Service, error) {
	if !cfg.AppleEnabled() {
		logger.Info("Apple Sign-In not configured, disabled")
		return &Service{enabled: false, logger: logger}, nil
	}

	var provider *oidc.Provider
	operation := func() error {
		var err error
		provider, err = oidc.NewProvider(ctx, cfg.AppleIssuer)
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("failed to discover Apple OIDC provider: %w", err)
	}

	return &Service{
		enabled: true,
		oauthCfg: oauth2.Config{
			ClientID:     cfg.AppleClientID,
			ClientSecret: cfg.AppleClientSecret,
			RedirectURL:  cfg.AppleRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.AppleClientID}),
		logger:   logger,
	}, nil
}

// Enabled reports whether the Apple flow is configured
func (s *Service) Enabled() bool {
	return s.enabled
}

// AuthCodeURL builds the provider redirect URL. Apple requires form_post
// responses whenever scopes are requested.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_mode", "form_post"))
}

// Exchange trades the authorization code for tokens and verifies the
// id_token signature, audience and issuer against the cached JWKS.
func (s *Service) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("provider response missing id_token")
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification failed: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token claims: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"subject": idToken.Subject,
	}).Debug("Verified Apple id_token")

	return &Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
	}, nil
}

// StateTTL is how long a minted state value stays valid
const StateTTL = 10 * time.Minute

// GenerateState mints a random CSRF state value for the redirect dance
func GenerateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
