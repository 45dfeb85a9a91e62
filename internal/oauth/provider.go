// Package oauth exchanges authorization codes for user profiles.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/inkbloom/inkbloom/internal/config"
)

// ErrExchange is wrapped by every failed code exchange.
var ErrExchange = errors.New("oauth: code exchange failed")

// Profile is the provider's view of the signed-in user.
type Profile struct {
	Subject   string
	Username  string
	Name      string
	AvatarURL string
	Email     string
	// Admin is nil when the provider does not declare a role.
	Admin *bool
}

// Provider is one configured identity provider.
type Provider interface {
	Name() string
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// New builds the provider named by cfg.Provider.
func New(ctx context.Context, cfg config.OAuthConfig, client *http.Client) (Provider, error) {
	switch cfg.Provider {
	case "accounts", "":
		return NewAccountsProvider(cfg.ClientID, cfg.ClientSecret, cfg.AuthorizeURL, cfg.UserInfoURL, client), nil
	case "github":
		return NewGitHubProvider(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, client), nil
	case "oidc":
		return NewOIDCProvider(ctx, cfg, client)
	}
	return nil, fmt.Errorf("unknown oauth provider %q", cfg.Provider)
}

func boolPtr(b bool) *bool { return &b }
