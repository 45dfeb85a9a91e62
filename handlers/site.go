package handlers

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/feeds"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/notices"
	"github.com/inkbloom/inkbloom/pkg/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type SiteHandler struct {
	blogs   *blogs.Service
	notices *notices.Service
	siteURL string
	name    string
	checks  map[string]Check
}

func NewSiteHandler(b *blogs.Service, n *notices.Service, siteURL string, checks map[string]Check) *SiteHandler {
	return &SiteHandler{
		blogs:   b,
		notices: n,
		siteURL: strings.TrimRight(siteURL, "/"),
		name:    "InkBloom",
		checks:  checks,
	}
}

// Register mounts the feeds, probes and admin dashboard routes. admin must
// enforce RequireAdmin and RequireCSRF.
func (h *SiteHandler) Register(r, admin gin.IRoutes, gatherer prometheus.Gatherer) {
	r.GET("/rss", h.RSS)
	r.GET("/sitemap", h.Sitemap)
	r.GET("/robots.txt", h.Robots)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "healthy") })
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	admin.GET("/admin/stats", h.Stats)
	admin.GET("/admin/system-messages", h.ListMessages)
	admin.POST("/admin/system-messages", h.PostMessage)
	admin.DELETE("/admin/system-messages/:id", h.DeleteMessage)
}

func (h *SiteHandler) url(parts ...string) string {
	return h.siteURL + "/" + strings.Join(parts, "/")
}

func (h *SiteHandler) RSS(c *gin.Context) {
	posts, err := h.blogs.Feed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	feed := &feeds.Feed{
		Title:       h.name,
		Link:        &feeds.Link{Href: h.url()},
		Description: "The latest posts on " + h.name,
		Created:     time.Now(),
	}
	strip := bluemonday.StripTagsPolicy()
	for _, p := range posts {
		desc := p.Summary
		if desc == "" {
			desc = html.UnescapeString(strip.Sanitize(p.Content))
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          p.BlogID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: h.url("blogs", p.Slug)},
			Description: desc,
			Author:      &feeds.Author{Name: p.Author.Name},
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
		})
	}
	rss, err := feed.ToRss()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (h *SiteHandler) Sitemap(c *gin.Context) {
	posts, err := h.blogs.All(c.Request.Context(), blogs.Viewer{})
	if err != nil {
		respondError(c, err)
		return
	}
	urls := []sitemapURL{{Loc: h.url()}, {Loc: h.url("blogs")}}
	for _, p := range posts {
		urls = append(urls, sitemapURL{Loc: h.url("blogs", p.Slug), LastMod: p.UpdatedAt.Format(dateLayout)})
	}
	out, err := xml.Marshal(sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9", URLs: urls})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

func (h *SiteHandler) Robots(c *gin.Context) {
	body := fmt.Sprintf("User-agent: *\nDisallow: /admin/\nDisallow: /api/\nDisallow: /user/\n\nSitemap: %s\n", h.url("sitemap"))
	c.String(http.StatusOK, body)
}

// Ready returns 200 only when every dependency check passes.
func (h *SiteHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	ready := true
	deps := map[string]bool{}
	for name, check := range h.checks {
		ok := check(ctx) == nil
		deps[name] = ok
		ready = ready && ok
	}
	uptime := time.Since(startTime).String()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
}

func (h *SiteHandler) Stats(c *gin.Context) {
	stats, err := h.blogs.CategoryStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "", gin.H{"categories": stats})
}

func (h *SiteHandler) ListMessages(c *gin.Context) {
	list, err := h.notices.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "", gin.H{"messages": list})
}

func (h *SiteHandler) PostMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
		Level   string `json:"level"`
	}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		middleware.AbortError(c, http.StatusBadRequest, apperr.MsgBadRequest)
		return
	}
	m, err := h.notices.Post(c.Request.Context(), req.Message, req.Level)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusCreated, "The system message has been posted!", gin.H{"system_message": m})
}

func (h *SiteHandler) DeleteMessage(c *gin.Context) {
	if err := h.notices.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The system message has been deleted!", nil)
}

// Fallbacks installs the fixed-message 404/405 handlers.
func Fallbacks(r *gin.Engine) {
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		middleware.AbortError(c, http.StatusNotFound, apperr.MsgNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		middleware.AbortError(c, http.StatusNotFound, apperr.MsgNotFound)
	})
}

// Recovery turns panics into the fixed 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		middleware.AbortError(c, http.StatusInternalServerError, apperr.MsgInternal)
	})
}
