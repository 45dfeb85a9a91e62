package sessions

import "time"

// Session is the typed browser session. A session without UserID is anonymous.
type Session struct {
	ID         string    `json:"-"`
	UserID     string    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Name       string    `json:"name,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsAdmin    bool      `json:"is_admin,omitempty"`
	IsBlocked  bool      `json:"is_blocked,omitempty"`
	CSRFToken  string    `json:"csrf_token,omitempty"`
	OAuthState string    `json:"oauth_state,omitempty"`
	Next       string    `json:"next,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// Admin is true only for an authenticated administrator.
func (s *Session) Admin() bool {
	return s.Authenticated() && s.IsAdmin
}

// CanModerate reports whether the session may act on content owned by ownerID.
func (s *Session) CanModerate(ownerID string) bool {
	if !s.Authenticated() {
		return false
	}
	return s.IsAdmin || s.UserID == ownerID
}

// SignOut drops every user field but keeps the id and CSRF token.
func (s *Session) SignOut() {
	s.UserID = ""
	s.Username = ""
	s.Name = ""
	s.AvatarURL = ""
	s.IsAdmin = false
	s.IsBlocked = false
	s.OAuthState = ""
	s.Next = ""
}
