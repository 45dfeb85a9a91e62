package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/comments"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

type CommentHandler struct {
	comments *comments.Service
	sm       *middleware.SessionManager
}

func NewCommentHandler(cm *comments.Service, sm *middleware.SessionManager) *CommentHandler {
	return &CommentHandler{comments: cm, sm: sm}
}

// Register mounts the comment routes on r. r must enforce RequireLogin,
// RequireNotBlocked and RequireCSRF in that order.
func (h *CommentHandler) Register(r gin.IRoutes) {
	r.POST("/api/blog/:id/comment", h.Post)
	r.DELETE("/api/v1/user/comments/:id", h.Delete)
}

type commentRequest struct {
	Comment string `json:"comment"`
	Slug    string `json:"slug"`
}

func (h *CommentHandler) Post(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		middleware.AbortError(c, http.StatusBadRequest, apperr.MsgBadRequest)
		return
	}
	sess := middleware.CurrentSession(c)
	cm, err := h.comments.Post(c.Request.Context(), authorOf(sess), c.Param("id"), req.Comment)
	if errors.Is(err, comments.ErrFlagged) {
		if derr := h.sm.Destroy(c, sess); derr != nil {
			logger.Warnf("destroying session of blocked user: %v", derr)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusCreated, "The comment has been successfully posted!", gin.H{"comment": cm})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), viewerOf(middleware.CurrentSession(c)), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The comment has been successfully deleted!", nil)
}
