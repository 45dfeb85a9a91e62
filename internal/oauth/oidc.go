package oauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/inkbloom/inkbloom/internal/config"
	"golang.org/x/oauth2"
)

// IDToken is a minimal interface for token payloads that allows extracting claims.
// It is satisfied by *oidc.IDToken and by InsecureVerifier tokens.
type IDToken interface {
	Claims(v interface{}) error
}

// Verifier checks a raw ID token.
type Verifier interface {
	Verify(ctx context.Context, raw string) (IDToken, error)
}

// oidcVerifier adapts *oidc.IDTokenVerifier to Verifier.
type oidcVerifier struct {
	v *oidc.IDTokenVerifier
}

func (o oidcVerifier) Verify(ctx context.Context, raw string) (IDToken, error) {
	tok, err := o.v.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// OIDCProvider runs the authorization-code flow against a discovered issuer
// and reads the profile from the verified ID token.
type OIDCProvider struct {
	cfg      oauth2.Config
	verifier Verifier
	client   *http.Client
}

// NewOIDCProvider discovers the issuer and builds the provider.
func NewOIDCProvider(ctx context.Context, cfg config.OAuthConfig, client *http.Client) (*OIDCProvider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	discoverCtx := oidc.ClientContext(ctx, client)
	provider, err := oidc.NewProvider(discoverCtx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	var v Verifier = oidcVerifier{v: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})}
	if cfg.AllowInsecureIDToken {
		v = NewInsecureVerifier()
	}
	return newOIDCProvider(oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}, v, client), nil
}

func newOIDCProvider(cfg oauth2.Config, v Verifier, client *http.Client) *OIDCProvider {
	return &OIDCProvider{cfg: cfg, verifier: v, client: client}
}

func (p *OIDCProvider) Name() string { return "oidc" }

func (p *OIDCProvider) AuthorizeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

type oidcClaims struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name"`
	Picture           string   `json:"picture"`
	Email             string   `json:"email"`
	Roles             []string `json:"roles"`
	RealmAccess       *struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

func (c oidcClaims) admin() *bool {
	roles := c.Roles
	if c.RealmAccess != nil {
		roles = append(roles, c.RealmAccess.Roles...)
	}
	if c.Roles == nil && c.RealmAccess == nil {
		return nil
	}
	for _, r := range roles {
		if r == "admin" {
			return boolPtr(true)
		}
	}
	return boolPtr(false)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: token response without id_token", ErrExchange)
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: verify id_token: %v", ErrExchange, err)
	}
	var claims oidcClaims
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: id_token claims: %v", ErrExchange, err)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: id_token without sub", ErrExchange)
	}
	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}
	return &Profile{
		Subject:   claims.Sub,
		Username:  claims.PreferredUsername,
		Name:      name,
		AvatarURL: claims.Picture,
		Email:     claims.Email,
		Admin:     claims.admin(),
	}, nil
}
