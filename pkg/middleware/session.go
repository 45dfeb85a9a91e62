package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/sessions"
	"github.com/inkbloom/inkbloom/pkg/logger"
)

const sessionContextKey = "session"

// AbortError stops the chain with the JSON error envelope.
func AbortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": msg})
}

// SessionManager loads the typed session for every request and writes the
// signed cookie when handlers persist it.
type SessionManager struct {
	Service *sessions.Service
	Codec   *sessions.CookieCodec
	Secure  bool
}

func NewSessionManager(svc *sessions.Service, codec *sessions.CookieCodec, secure bool) *SessionManager {
	return &SessionManager{Service: svc, Codec: codec, Secure: secure}
}

// Middleware attaches a session to the context. Unknown, tampered or revoked
// cookies yield a fresh anonymous session. Signed-in sessions get their
// expiry pushed forward on every request.
func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var sess *sessions.Session
		if raw, err := c.Cookie(sessions.CookieName); err == nil && raw != "" {
			if id, err := m.Codec.Decode(raw); err == nil {
				s, err := m.Service.Load(ctx, id)
				if err != nil {
					logger.Warnf("session load failed: %v", err)
				}
				sess = s
			}
		}

		if sess == nil {
			fresh, err := m.Service.New()
			if err != nil {
				logger.Errorf("session create failed: %v", err)
				AbortError(c, http.StatusInternalServerError, apperr.MsgInternal)
				return
			}
			sess = fresh
		} else if sess.Authenticated() {
			if err := m.Persist(c, sess); err != nil {
				logger.Warnf("session refresh failed: %v", err)
			}
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// Persist saves sess and (re)writes the cookie.
func (m *SessionManager) Persist(c *gin.Context, sess *sessions.Session) error {
	if err := m.Service.Save(c.Request.Context(), sess); err != nil {
		return err
	}
	value, err := m.Codec.Encode(sess.ID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName, value, int(m.Service.TTL().Seconds()), "/", "", m.Secure, true)
	return nil
}

// Destroy deletes sess and expires the cookie.
func (m *SessionManager) Destroy(c *gin.Context, sess *sessions.Session) error {
	err := m.Service.Destroy(c.Request.Context(), sess)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName, "", -1, "/", "", m.Secure, true)
	return err
}

func sessionFromContext(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*sessions.Session); ok && s != nil {
			return s
		}
	}
	return nil
}

// CurrentSession returns the request's session; an empty anonymous session
// when the middleware did not run.
func CurrentSession(c *gin.Context) *sessions.Session {
	if s := sessionFromContext(c); s != nil {
		return s
	}
	s := &sessions.Session{}
	c.Set(sessionContextKey, s)
	return s
}
