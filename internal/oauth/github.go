package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubProvider signs users in with a GitHub OAuth app.
type GitHubProvider struct {
	cfg     oauth2.Config
	apiBase string
	client  *http.Client
}

func NewGitHubProvider(clientID, clientSecret, redirectURL string, client *http.Client) *GitHubProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &GitHubProvider{
		cfg: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: "https://api.github.com",
		client:  client,
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthorizeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: github user status %d", ErrExchange, resp.StatusCode)
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("%w: decode github user: %v", ErrExchange, err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("%w: github user without id", ErrExchange)
	}
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &Profile{
		Subject:   "github:" + strconv.FormatInt(u.ID, 10),
		Username:  u.Login,
		Name:      name,
		AvatarURL: u.AvatarURL,
		Email:     u.Email,
	}, nil
}
