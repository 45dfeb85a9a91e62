package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/inkbloom/inkbloom/internal/sessions"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

// respondError writes err as the error envelope.
func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

func viewerOf(sess *sessions.Session) blogs.Viewer {
	if !sess.Authenticated() {
		return blogs.Viewer{}
	}
	return blogs.Viewer{UserID: sess.UserID, Admin: sess.IsAdmin}
}

func authorOf(sess *sessions.Session) models.AuthorRef {
	return models.AuthorRef{
		UserID:    sess.UserID,
		Name:      sess.Name,
		AvatarURL: sess.AvatarURL,
		IsAdmin:   sess.IsAdmin,
	}
}

// sessionUser is the slice of the session exposed to page data.
func sessionUser(sess *sessions.Session) gin.H {
	if !sess.Authenticated() {
		return nil
	}
	return gin.H{
		"user_id":    sess.UserID,
		"username":   sess.Username,
		"name":       sess.Name,
		"avatar_url": sess.AvatarURL,
		"is_admin":   sess.IsAdmin,
	}
}

// Pages renders page routes. Without a template directory the data a page
// would render is returned as JSON.
type Pages struct {
	sm   *middleware.SessionManager
	html bool
}

func NewPages(sm *middleware.SessionManager, html bool) *Pages {
	return &Pages{sm: sm, html: html}
}

// Render issues a fresh CSRF token for the page and writes data.
func (p *Pages) Render(c *gin.Context, name string, data gin.H) {
	sess := middleware.CurrentSession(c)
	tok, err := p.sm.Service.NewCSRFToken(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := p.sm.Persist(c, sess); err != nil {
		logger.Warnf("saving session for %s page: %v", name, err)
	}
	if data == nil {
		data = gin.H{}
	}
	data["csrf_token"] = tok
	data["user"] = sessionUser(sess)
	if p.html {
		c.HTML(http.StatusOK, name+".html", data)
		return
	}
	data["status"] = "success"
	data["page"] = name
	c.JSON(http.StatusOK, data)
}
