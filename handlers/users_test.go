package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeSelfOnly(t *testing.T) {
	e := newEnv(t)
	ada := e.login(t, "ada", false)
	e.login(t, "bob", false)

	w := e.do(t, request{method: http.MethodPut, path: "/api/v1/users/bob/subscribe", body: jsonBody(t, map[string]string{"email": "a@example.com"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodPut, path: "/api/v1/users/ada/subscribe", body: jsonBody(t, map[string]string{"email": "not-an-email"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: http.MethodPut, path: "/api/v1/users/ada/subscribe", body: jsonBody(t, map[string]string{"email": "ada@example.com"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	u, err := e.users.Get(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.NewsletterSubscribed)

	w = e.do(t, request{method: "GET", path: "/api/v1/users/verify/garbage"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, request{method: http.MethodPut, path: "/api/v1/users/ada/unsubscribe", sess: ada})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportAndDeleteAccount(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	ada := e.login(t, "ada", false)
	bob := e.login(t, "bob", false)
	id := e.blogID(t, e.createBlog(t, admin, "Talk", "go", "public"))

	w := e.do(t, request{method: http.MethodPost, path: "/api/blog/" + id + "/comment", body: jsonBody(t, map[string]string{"comment": "first!"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusCreated, w.Code)
	w = e.do(t, request{method: http.MethodPost, path: "/api/v1/feedback", body: jsonBody(t, map[string]string{"feedback": "great site"}), contentType: "application/json", sess: ada})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, request{method: "GET", path: "/api/v1/users/ada/export", sess: bob})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: "GET", path: "/api/v1/users/ada/export", sess: ada})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	export := decode(t, w)
	assert.Len(t, export["comments"], 1)
	assert.Len(t, export["feedback"], 1)

	w = e.do(t, request{method: "GET", path: "/api/v1/users/ada/export", sess: admin})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, request{method: http.MethodDelete, path: "/api/v1/users/ada/delete", sess: bob})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodDelete, path: "/api/v1/users/ada/delete", sess: ada})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err := e.users.Get(context.Background(), "ada")
	assert.Error(t, err)
	b, err := e.blogStore.GetByBlogID(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, b.CommentsCount)

	w = e.do(t, request{method: "GET", path: "/api/v1/users/ada/export", sess: ada})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminBlocksUser(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "admin", true)
	ada := e.login(t, "ada", false)

	w := e.do(t, request{method: http.MethodPost, path: "/admin/users/ada/block", sess: ada})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/admin/users/ada/block", sess: admin})
	require.Equal(t, http.StatusOK, w.Code)
	u, err := e.users.Get(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, u.IsBlocked)

	// existing sessions were revoked
	w = e.do(t, request{method: http.MethodPut, path: "/api/v1/users/ada/unsubscribe", sess: ada})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/admin/users/ghost/block", sess: admin})
	require.Equal(t, http.StatusNotFound, w.Code)
}
