package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
)

// RequireLogin rejects anonymous requests with 401.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Authenticated() {
			AbortError(c, http.StatusUnauthorized, apperr.MsgUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireLoginPage sends anonymous visitors to the login flow and back.
func RequireLoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Authenticated() {
			c.Redirect(http.StatusFound, "/user/authorize?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin checks authentication first, then the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if !sess.Authenticated() || !sess.IsAdmin {
			AbortError(c, http.StatusUnauthorized, apperr.MsgUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireNotBlocked rejects signed-in users flagged by moderation.
func RequireNotBlocked() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c).IsBlocked {
			AbortError(c, http.StatusUnauthorized, "Your account has been blocked!")
			return
		}
		c.Next()
	}
}

// SecureHeaders sets the static response headers served on every route.
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
