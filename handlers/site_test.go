package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeds(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	pub := e.createBlog(t, admin, "Public Post", "go", "public")
	priv := e.createBlog(t, admin, "Secret Post", "go", "private")

	w := e.do(t, request{method: "GET", path: "/rss"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/rss+xml"))
	assert.Contains(t, w.Body.String(), "http://blog.test/blogs/"+pub)
	assert.NotContains(t, w.Body.String(), priv)

	w = e.do(t, request{method: "GET", path: "/sitemap"})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<urlset")
	assert.Contains(t, body, "<loc>http://blog.test/blogs</loc>")
	assert.Contains(t, body, "<loc>http://blog.test/blogs/"+pub+"</loc>")
	assert.NotContains(t, body, priv)

	w = e.do(t, request{method: "GET", path: "/robots.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Disallow: /admin/")
	assert.Contains(t, w.Body.String(), "Sitemap: http://blog.test/sitemap")
}

func TestSystemMessages(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	ada := e.login(t, "ada", false)

	w := e.do(t, request{method: http.MethodPost, path: "/admin/system-messages", body: jsonBody(t, map[string]string{"message": "Maintenance tonight"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/admin/system-messages", body: jsonBody(t, map[string]string{"message": "x", "level": "panic"}), contentType: "application/json", sess: admin})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/admin/system-messages", body: jsonBody(t, map[string]string{"message": "Maintenance tonight", "level": "warning"}), contentType: "application/json", sess: admin})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["system_message"].(map[string]interface{})["message_id"].(string)

	w = e.do(t, request{method: "GET", path: "/"})
	require.Equal(t, http.StatusOK, w.Code)
	msg := decode(t, w)["system_message"].(map[string]interface{})
	assert.Equal(t, "Maintenance tonight", msg["message"])
	assert.Equal(t, "warning", msg["level"])

	w = e.do(t, request{method: "GET", path: "/admin/system-messages", sess: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 1)

	w = e.do(t, request{method: http.MethodDelete, path: "/admin/system-messages/" + id, sess: admin})
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, request{method: http.MethodDelete, path: "/admin/system-messages/" + id, sess: admin})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, request{method: "GET", path: "/"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["system_message"])
}

func TestAdminStatsAndFeedback(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	ada := e.login(t, "ada", false)
	e.createBlog(t, admin, "One", "go", "public")
	e.createBlog(t, admin, "Two", "go", "private")

	w := e.do(t, request{method: "GET", path: "/admin/stats", sess: ada})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: "GET", path: "/admin/stats", sess: admin})
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode(t, w)["categories"].([]interface{})
	require.Len(t, cats, 1)
	assert.EqualValues(t, 2, cats[0].(map[string]interface{})["totalBlogs"])

	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/feedback", body: jsonBody(t, map[string]string{"feedback": "  "}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/feedback", body: jsonBody(t, map[string]string{"feedback": "<b>love</b> it"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/feedback", body: jsonBody(t, map[string]string{"feedback": "hi"}), contentType: "application/json"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: "GET", path: "/admin/feedback", sess: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["feedback"], 1)
}

func TestFeedDescriptionEscapedOnce(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	body, ct := blogForm(t, map[string]string{
		"title":      "Cartoons",
		"content":    "<p>Tom &amp; Jerry's <b>best</b></p>",
		"tags":       "tv",
		"visibility": "public",
	}, pngBytes(t))
	w := e.do(t, request{method: http.MethodPost, path: "/admin/blogs/create", body: body, contentType: ct, sess: admin})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, request{method: "GET", path: "/rss"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tom &amp; Jerry")
	assert.NotContains(t, w.Body.String(), "&amp;amp;")
	assert.NotContains(t, w.Body.String(), "&lt;b&gt;")
}
