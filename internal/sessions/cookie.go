package sessions

import (
	"time"

	"github.com/gorilla/securecookie"
)

const CookieName = "inkbloom-session"

// CookieCodec signs session ids for the browser cookie.
type CookieCodec struct {
	sc *securecookie.SecureCookie
}

func NewCookieCodec(secret string, ttl time.Duration) *CookieCodec {
	sc := securecookie.New([]byte(secret), nil)
	sc.MaxAge(int(ttl.Seconds()))
	return &CookieCodec{sc: sc}
}

func (c *CookieCodec) Encode(id string) (string, error) {
	return c.sc.Encode(CookieName, id)
}

// Decode returns the session id, or an error for tampered or stale values.
func (c *CookieCodec) Decode(value string) (string, error) {
	var id string
	if err := c.sc.Decode(CookieName, value, &id); err != nil {
		return "", err
	}
	return id, nil
}
