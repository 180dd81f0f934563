package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/workflowai/console/internal/config"
)

// Google builds authorization URLs for the Google sign-in flow. The console
// never exchanges the code itself: the API owns the client secret and performs
// the exchange, so only the authorization endpoint and client ID are needed
// here.
type Google struct {
	oauth2 oauth2.Config
}

// NewGoogle discovers Google's OAuth endpoints via OIDC and returns a
// configured provider. Returns nil when Google sign-in is disabled.
func NewGoogle(ctx context.Context, cfg *config.GoogleConfig) (*Google, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &Google{
		oauth2: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Endpoint:    provider.Endpoint(),
			Scopes:      cfg.Scopes,
		},
	}, nil
}

// AuthCodeURL generates the authorization URL with a fresh random state.
// The caller is responsible for remembering the state until the callback.
func (g *Google) AuthCodeURL() (url, state string) {
	state = uuid.New().String()
	return g.oauth2.AuthCodeURL(state), state
}
