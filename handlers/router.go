package handlers

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/comments"
	"github.com/inkbloom/inkbloom/internal/config"
	feedbackhandler "github.com/inkbloom/inkbloom/internal/feedback/handler"
	feedbacksvc "github.com/inkbloom/inkbloom/internal/feedback/service"
	"github.com/inkbloom/inkbloom/internal/notices"
	"github.com/inkbloom/inkbloom/internal/oauth"
	"github.com/inkbloom/inkbloom/internal/users"
	"github.com/inkbloom/inkbloom/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Deps is everything the router needs. Redis may be nil, which turns the
// per-route limiters off and the global limiter to memory.
type Deps struct {
	Sessions *middleware.SessionManager
	Redis    *redis.Client
	Provider oauth.Provider
	Users    *users.Service
	Blogs    *blogs.Service
	Comments *comments.Service
	Notices  *notices.Service
	Feedback feedbacksvc.Service
	Checks   map[string]Check
	Gatherer prometheus.Gatherer

	RateLimit    config.RateLimitConfig
	SiteURL      string
	TemplatesDir string
	// Logging adds gin's request logger.
	Logging bool
}

// NewRouter builds the engine: limiter, session, then per-group auth and
// CSRF checks in front of the handlers.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	if d.Logging {
		r.Use(gin.Logger())
	}
	r.Use(Recovery(), middleware.SecureHeaders())
	r.MaxMultipartMemory = MaxUploadBytes
	Fallbacks(r)

	html := d.TemplatesDir != ""
	if html {
		r.LoadHTMLGlob(filepath.Join(d.TemplatesDir, "*.html"))
	}

	if d.RateLimit.Enabled {
		r.Use(middleware.RedisRateLimitMiddleware(d.Redis, d.RateLimit.RPS, d.RateLimit.Burst, d.RateLimit.Window))
	}
	r.Use(d.Sessions.Middleware())

	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	pages := NewPages(d.Sessions, html)

	api := r.Group("/api/v1")
	page := r.Group("", middleware.RequireLoginPage())
	account := r.Group("", middleware.RequireLogin(), middleware.RequireCSRF())
	posting := r.Group("", middleware.RequireLogin(), middleware.RequireNotBlocked(), middleware.RequireCSRF())
	admin := r.Group("", middleware.RequireAdmin(), middleware.RequireCSRF())
	csrf := r.Group("", middleware.RequireCSRF())

	RegisterSwagger(r)
	NewAuthHandler(d.Provider, d.Users, d.Sessions).Register(r)
	NewBlogHandler(d.Blogs, d.Comments, d.Notices, pages).Register(r, api, admin)
	NewCommentHandler(d.Comments, d.Sessions).Register(posting)
	NewSearchHandler(d.Blogs, pages).Register(r, api)
	NewStatsHandler(d.Blogs).Register(csrf,
		middleware.RouteLimit(d.Redis, "views", d.RateLimit.ViewsLimit, d.RateLimit.StatsWindow),
		middleware.RouteLimit(d.Redis, "likes", d.RateLimit.LikesLimit, d.RateLimit.StatsWindow),
	)
	NewUserHandler(d.Users, d.Comments, d.Feedback, d.Sessions, pages).Register(r, page, account, admin)
	feedbackhandler.RegisterFeedbackRoutes(posting.Group("/api/v1"), admin.Group("/admin"), d.Feedback)
	NewSiteHandler(d.Blogs, d.Notices, d.SiteURL, d.Checks).Register(r, admin, d.Gatherer)
	return r
}
