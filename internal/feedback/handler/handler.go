package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/feedback/service"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

const recentLimit = 100

// RegisterFeedbackRoutes mounts the submit route on api and the listing on
// admin. Both groups are expected to carry their auth middleware.
func RegisterFeedbackRoutes(api, admin gin.IRoutes, svc service.Service) {
	api.POST("/feedback", func(c *gin.Context) {
		var req struct {
			Feedback string `json:"feedback"`
		}
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			middleware.AbortError(c, http.StatusBadRequest, apperr.MsgBadRequest)
			return
		}
		sess := middleware.CurrentSession(c)
		if _, err := svc.Submit(c.Request.Context(), sess.UserID, req.Feedback); err != nil {
			middleware.RespondError(c, err)
			return
		}
		middleware.Success(c, http.StatusCreated, "Thank you for your feedback!", nil)
	})

	admin.GET("/feedback", func(c *gin.Context) {
		list, err := svc.Recent(c.Request.Context(), recentLimit)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		middleware.Success(c, http.StatusOK, "", gin.H{"feedback": list})
	})
}
