package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/oauth"
	"github.com/inkbloom/inkbloom/internal/users"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/metrics"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

const exchangeTimeout = 10 * time.Second

// AuthHandler runs the OAuth login dance.
type AuthHandler struct {
	provider oauth.Provider
	users    *users.Service
	sm       *middleware.SessionManager
}

func NewAuthHandler(p oauth.Provider, u *users.Service, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{provider: p, users: u, sm: sm}
}

func (h *AuthHandler) Register(r gin.IRoutes) {
	r.GET("/user/authorize", h.Authorize)
	r.GET("/oauth-callback/:provider", h.Callback)
	r.GET("/user/logout", h.Logout)
}

// safeNext keeps only same-site relative paths.
func safeNext(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}

// Authorize stores a state nonce and sends the browser to the provider.
func (h *AuthHandler) Authorize(c *gin.Context) {
	if msg := c.Query("error"); msg != "" {
		middleware.AbortError(c, http.StatusUnauthorized, msg)
		return
	}
	sess := middleware.CurrentSession(c)
	next := safeNext(c.Query("next"))
	if sess.Authenticated() {
		if next == "" {
			next = "/"
		}
		c.Redirect(http.StatusFound, next)
		return
	}

	state, err := h.sm.Service.NewState()
	if err != nil {
		respondError(c, err)
		return
	}
	sess.OAuthState = state
	sess.Next = next
	if err := h.sm.Persist(c, sess); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.provider.AuthorizeURL(state))
}

// Callback verifies state, exchanges the code and signs the user in.
func (h *AuthHandler) Callback(c *gin.Context) {
	if c.Param("provider") != h.provider.Name() {
		middleware.AbortError(c, http.StatusNotFound, apperr.MsgNotFound)
		return
	}
	sess := middleware.CurrentSession(c)
	expected, next := sess.OAuthState, sess.Next
	sess.OAuthState, sess.Next = "", ""

	fail := func(msg string) {
		metrics.Logins.WithLabelValues(h.provider.Name(), "failure").Inc()
		if err := h.sm.Persist(c, sess); err != nil {
			logger.Warnf("clearing oauth state: %v", err)
		}
		c.Redirect(http.StatusFound, "/user/authorize?error="+url.QueryEscape(msg))
	}

	if e := c.Query("error"); e != "" {
		logger.Infof("provider %s returned error %q", h.provider.Name(), e)
		fail("The authentication attempt was denied by the identity provider!")
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		fail("The authentication attempt failed, due to mismatched state parameter!")
		return
	}
	if code == "" {
		fail("The authentication attempt failed, due to missing code parameter!")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
	defer cancel()
	profile, err := h.provider.Exchange(ctx, code)
	if err != nil {
		logger.Warnf("oauth exchange with %s failed: %v", h.provider.Name(), err)
		fail("The authentication attempt failed, due to invalid response from the identity provider!")
		return
	}
	u, err := h.users.UpsertFromProfile(ctx, h.provider.Name(), profile)
	if err != nil {
		logger.Errorf("upserting user %s: %v", profile.Subject, err)
		fail("The authentication attempt failed, please try again later!")
		return
	}

	if err := h.sm.Service.Regenerate(c.Request.Context(), sess); err != nil {
		logger.Errorf("regenerating session: %v", err)
		fail("The authentication attempt failed, please try again later!")
		return
	}
	sess.UserID = u.UserID
	sess.Username = u.Username
	sess.Name = u.Name
	sess.AvatarURL = u.AvatarURL
	sess.IsAdmin = u.IsAdmin
	sess.IsBlocked = u.IsBlocked
	if err := h.sm.Persist(c, sess); err != nil {
		respondError(c, err)
		return
	}
	metrics.Logins.WithLabelValues(h.provider.Name(), "success").Inc()
	logger.Infof("user %s signed in via %s", u.UserID, h.provider.Name())

	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sm.Destroy(c, middleware.CurrentSession(c)); err != nil {
		logger.Warnf("destroying session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}
