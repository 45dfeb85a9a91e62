package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const CSRFHeader = "X-CSRF-Token"

type csrfPayload struct {
	CSRFToken string `json:"csrf_token" form:"csrf_token"`
}

// csrfToken reads the token from the header, a form field or a JSON body.
// JSON bodies are cached so handlers can bind them again with ShouldBindBodyWith.
func csrfToken(c *gin.Context) string {
	if tok := c.GetHeader(CSRFHeader); tok != "" {
		return tok
	}
	ct := c.ContentType()
	switch {
	case ct == binding.MIMEJSON:
		var p csrfPayload
		if err := c.ShouldBindBodyWith(&p, binding.JSON); err == nil {
			return p.CSRFToken
		}
	case ct == binding.MIMEMultipartPOSTForm, ct == binding.MIMEPOSTForm:
		return c.PostForm("csrf_token")
	}
	return ""
}

// RequireCSRF compares the submitted token with the session token on
// state-changing methods.
func RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		expected := CurrentSession(c).CSRFToken
		got := strings.TrimSpace(csrfToken(c))
		if expected == "" || got == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			AbortError(c, http.StatusUnauthorized, "Invalid CSRF token!")
			return
		}
		c.Next()
	}
}
