package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickSearch(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, request{method: "GET", path: "/api/v1/search?query=go"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = e.do(t, request{method: "GET", path: "/api/v1/search"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	admin := e.login(t, "admin", true)
	e.createBlog(t, admin, "Learning Go", "go", "public")
	e.createBlog(t, admin, "Go Internals", "go", "private")

	w = e.do(t, request{method: "GET", path: "/api/v1/search?query=GO"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"], 1)

	w = e.do(t, request{method: "GET", path: "/api/v1/search?query=go", sess: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"], 2)
}

func TestFacetedSearch(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	e.createBlog(t, admin, "One", "go", "public")
	e.createBlog(t, admin, "Two", "rust", "public")

	w := e.do(t, request{method: "GET", path: "/search"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: "GET", path: "/search?publish_date_lt=yesterday"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: "GET", path: "/search?views_gt=many"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: "GET", path: "/search?tags=go&tags=rust&publish_date_gte=2000-01-01"})
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode(t, w)["search_results"].([]interface{})
	require.Len(t, groups, 1)
	assert.EqualValues(t, 2, groups[0].(map[string]interface{})["totalBlogs"])

	w = e.do(t, request{method: "GET", path: "/search?views_gte=1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["search_results"])
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter(url.Values{"tags": {"Go, web", "db"}, "category": {" News "}, "views_lte": {"10"}, "publish_date_gt": {"2024-02-01"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web", "db"}, f.Tags)
	assert.Equal(t, "news", f.Category)
	require.NotNil(t, f.Views.LTE)
	assert.EqualValues(t, 10, *f.Views.LTE)
	require.NotNil(t, f.CreatedAt.GT)
	assert.Equal(t, 2024, f.CreatedAt.GT.Year())
}

func TestTagAndCategoryRedirect(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, request{method: "GET", path: "/tags/web%20dev"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/search?tags=web+dev", w.Header().Get("Location"))

	w = e.do(t, request{method: "GET", path: "/category/news"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/search?category=news", w.Header().Get("Location"))
}

func TestStatsCountersAreRateLimited(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	reader := e.login(t, "reader", false)
	slug := e.createBlog(t, admin, "Counted", "go", "public")

	w := e.do(t, request{method: http.MethodPost, path: "/api/v1/statisics/views/" + slug, sess: reader})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/statisics/views/" + slug, sess: reader})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests, please try again later!", decode(t, w)["message"])

	// likes have their own window
	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/statisics/likes/" + slug, sess: reader})
	require.Equal(t, http.StatusOK, w.Code)

	b := e.blogID(t, slug)
	got, err := e.blogStore.GetByBlogID(context.Background(), b)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)
	assert.EqualValues(t, 1, got.Likes)

	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/statisics/views/missing", sess: reader})
	require.Equal(t, http.StatusNotFound, w.Code)
}
