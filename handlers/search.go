package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

const dateLayout = "2006-01-02"

type SearchHandler struct {
	blogs *blogs.Service
	pages *Pages
}

func NewSearchHandler(b *blogs.Service, pages *Pages) *SearchHandler {
	return &SearchHandler{blogs: b, pages: pages}
}

func (h *SearchHandler) Register(r, api gin.IRoutes) {
	api.GET("/search", h.Quick)
	r.GET("/search", h.Faceted)
	r.GET("/tags/:tag", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/search?tags="+url.QueryEscape(c.Param("tag")))
	})
	r.GET("/category/:category", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/search?category="+url.QueryEscape(c.Param("category")))
	})
}

// Quick answers the navbar search box. No hits is a 404 with an empty list.
func (h *SearchHandler) Quick(c *gin.Context) {
	hits, err := h.blogs.QuickSearch(c.Request.Context(), c.Query("query"), viewerOf(middleware.CurrentSession(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(hits) == 0 {
		c.JSON(http.StatusNotFound, []models.BlogSummary{})
		return
	}
	middleware.Success(c, http.StatusOK, "", gin.H{"results": hits})
}

// parseFilter reads the faceted search query. Tags may repeat or be
// comma separated.
func parseFilter(q url.Values) (content.SearchFilter, error) {
	var f content.SearchFilter
	for _, raw := range q["tags"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}
	f.Category = strings.ToLower(strings.TrimSpace(q.Get("category")))

	dates := map[string]**time.Time{
		"publish_date_lt":  &f.CreatedAt.LT,
		"publish_date_gt":  &f.CreatedAt.GT,
		"publish_date_lte": &f.CreatedAt.LTE,
		"publish_date_gte": &f.CreatedAt.GTE,
	}
	for key, dst := range dates {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, apperr.Validation("Dates must use the YYYY-MM-DD format!")
		}
		*dst = &t
	}

	views := map[string]**int64{
		"views_lt":  &f.Views.LT,
		"views_gt":  &f.Views.GT,
		"views_lte": &f.Views.LTE,
		"views_gte": &f.Views.GTE,
	}
	for key, dst := range views {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apperr.Validation("View filters must be whole numbers!")
		}
		*dst = &n
	}
	return f, nil
}

func (h *SearchHandler) Faceted(c *gin.Context) {
	f, err := parseFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	groups, err := h.blogs.Search(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Render(c, "search", gin.H{"search_results": groups, "filters": c.Request.URL.Query()})
}

type StatsHandler struct {
	blogs *blogs.Service
}

func NewStatsHandler(b *blogs.Service) *StatsHandler {
	return &StatsHandler{blogs: b}
}

// Register mounts the counters. views and likes carry the per-route limiters.
func (h *StatsHandler) Register(r gin.IRoutes, views, likes gin.HandlerFunc) {
	r.POST("/api/v1/statisics/views/:slug", views, h.View)
	r.POST("/api/v1/statisics/likes/:slug", likes, h.Like)
}

func (h *StatsHandler) View(c *gin.Context) {
	if err := h.blogs.RecordView(c.Request.Context(), c.Param("slug"), viewerOf(middleware.CurrentSession(c))); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The view has been recorded!", nil)
}

func (h *StatsHandler) Like(c *gin.Context) {
	if err := h.blogs.RecordLike(c.Request.Context(), c.Param("slug"), viewerOf(middleware.CurrentSession(c))); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The blog has been liked!", nil)
}
