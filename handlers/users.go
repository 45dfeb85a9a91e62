package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/comments"
	feedbacksvc "github.com/inkbloom/inkbloom/internal/feedback/service"
	"github.com/inkbloom/inkbloom/internal/users"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

type UserHandler struct {
	users    *users.Service
	comments *comments.Service
	feedback feedbacksvc.Service
	sm       *middleware.SessionManager
	pages    *Pages
}

func NewUserHandler(u *users.Service, cm *comments.Service, fb feedbacksvc.Service, sm *middleware.SessionManager, pages *Pages) *UserHandler {
	return &UserHandler{users: u, comments: cm, feedback: fb, sm: sm, pages: pages}
}

// Register mounts the account routes. page must redirect anonymous visitors,
// account must enforce RequireLogin and RequireCSRF, admin RequireAdmin and
// RequireCSRF.
func (h *UserHandler) Register(r, page, account, admin gin.IRoutes) {
	page.GET("/profile", h.Profile)
	r.GET("/api/v1/users/verify/:token", h.Verify)
	account.PUT("/api/v1/users/:id/subscribe", h.Subscribe)
	account.PUT("/api/v1/users/:id/unsubscribe", h.Unsubscribe)
	account.GET("/api/v1/users/:id/export", h.Export)
	account.DELETE("/api/v1/users/:id/delete", h.Delete)
	admin.POST("/admin/users/:id/block", h.Block)
}

// self rejects requests where :id is not the signed-in user.
func self(c *gin.Context) (string, bool) {
	sess := middleware.CurrentSession(c)
	id := c.Param("id")
	if !sess.Authenticated() || sess.UserID != id {
		middleware.AbortError(c, http.StatusUnauthorized, apperr.MsgUnauthorized)
		return "", false
	}
	return id, true
}

func (h *UserHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	sess := middleware.CurrentSession(c)
	u, err := h.users.Get(ctx, sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.comments.ByAuthor(ctx, sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Render(c, "profile", gin.H{"profile": u, "comments": list})
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := self(c)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		middleware.AbortError(c, http.StatusBadRequest, apperr.MsgBadRequest)
		return
	}
	if err := h.users.Subscribe(c.Request.Context(), id, req.Email); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "Please check your inbox to confirm your subscription!", nil)
}

func (h *UserHandler) Verify(c *gin.Context) {
	if _, err := h.users.ConfirmSubscription(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "Your newsletter subscription has been confirmed!", nil)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := self(c)
	if !ok {
		return
	}
	if err := h.users.Unsubscribe(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "You have been unsubscribed from the newsletter!", nil)
}

// Export returns everything stored about a user as a JSON download.
func (h *UserHandler) Export(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	id := c.Param("id")
	if !sess.CanModerate(id) {
		middleware.AbortError(c, http.StatusUnauthorized, apperr.MsgUnauthorized)
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.comments.ByAuthor(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	fb, err := h.feedback.ForUser(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="inkbloom-%s.json"`, id))
	c.JSON(http.StatusOK, gin.H{"user": u, "comments": list, "feedback": fb})
}

// Delete erases the signed-in user's account and content, then signs out.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := self(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	n, err := h.comments.PurgeAuthor(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.feedback.DeleteForUser(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.sm.Destroy(c, middleware.CurrentSession(c)); err != nil {
		logger.Warnf("destroying session of deleted user %s: %v", id, err)
	}
	logger.Infof("user %s deleted with %d comments", id, n)
	middleware.Success(c, http.StatusOK, "Your account has been deleted!", nil)
}

func (h *UserHandler) Block(c *gin.Context) {
	if err := h.users.BlockUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The user has been blocked!", nil)
}
