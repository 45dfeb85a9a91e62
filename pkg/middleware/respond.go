package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/pkg/logger"
)

// RespondError writes err as the JSON error envelope. Causes of upstream and
// internal errors are logged and never shown to the client.
func RespondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	msg := e.Message
	switch e.Kind {
	case apperr.KindInternal, apperr.KindUpstream:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		if e.Kind == apperr.KindInternal || msg == "" {
			msg = apperr.MsgInternal
		}
	}
	if msg == "" {
		msg = e.Kind.DefaultMessage()
	}
	AbortError(c, e.Kind.Status(), msg)
}

// Success writes {"status":"success","message":msg} plus extra fields.
func Success(c *gin.Context, status int, msg string, extra gin.H) {
	body := gin.H{"status": "success", "message": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
