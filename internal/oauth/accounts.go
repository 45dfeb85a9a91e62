package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AccountsProvider talks to an accounts service that returns the user
// profile directly from a JSON code exchange.
type AccountsProvider struct {
	clientID     string
	clientSecret string
	authorizeURL string
	userInfoURL  string
	client       *http.Client
}

func NewAccountsProvider(clientID, clientSecret, authorizeURL, userInfoURL string, client *http.Client) *AccountsProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &AccountsProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		authorizeURL: authorizeURL,
		userInfoURL:  userInfoURL,
		client:       client,
	}
}

func (p *AccountsProvider) Name() string { return "accounts" }

func (p *AccountsProvider) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("state", state)
	sep := "?"
	if strings.Contains(p.authorizeURL, "?") {
		sep = "&"
	}
	return p.authorizeURL + sep + q.Encode()
}

type accountsUserInfo struct {
	User struct {
		PublicID string `json:"user_public_id"`
		Role     string `json:"user_role"`
		Email    string `json:"user_email"`
		Profile  struct {
			Username    string `json:"user_name"`
			DisplayName string `json:"user_display_name"`
			Picture     string `json:"user_profile_picture"`
		} `json:"user_profile"`
	} `json:"user"`
}

func (p *AccountsProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     p.clientID,
		"client_secret": p.clientSecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.userInfoURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: user-info status %d", ErrExchange, resp.StatusCode)
	}

	var info accountsUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode user-info: %v", ErrExchange, err)
	}
	if info.User.PublicID == "" {
		return nil, fmt.Errorf("%w: user-info without user id", ErrExchange)
	}

	prof := &Profile{
		Subject:   info.User.PublicID,
		Username:  info.User.Profile.Username,
		Name:      info.User.Profile.DisplayName,
		AvatarURL: info.User.Profile.Picture,
		Email:     info.User.Email,
	}
	if info.User.Role != "" {
		prof.Admin = boolPtr(strings.EqualFold(info.User.Role, "admin"))
	}
	if prof.Name == "" {
		prof.Name = prof.Username
	}
	return prof, nil
}
