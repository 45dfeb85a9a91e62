package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the API documentation endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r gin.IRoutes) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>InkBloom API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "InkBloom", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Envelope": { "type": "object", "properties": { "status": { "type": "string", "enum": ["success", "error"] }, "message": { "type": "string" } } }
    }
  },
  "paths": {
    "/admin/blogs/create": {
      "post": {
        "summary": "Publish a blog",
        "requestBody": { "content": { "multipart/form-data": { "schema": { "type": "object", "properties": { "title": {"type":"string"}, "content": {"type":"string"}, "tags": {"type":"string"}, "summary": {"type":"string"}, "category": {"type":"string"}, "visibility": {"type":"string","enum":["public","private"]}, "cover_image": {"type":"string","format":"binary"}, "csrf_token": {"type":"string"} }, "required": ["title","content","tags","visibility","cover_image"] } } } },
        "responses": { "201": { "description": "created, returns blog_slug" }, "400": { "description": "missing or invalid fields" }, "401": { "description": "not an admin or bad CSRF token" } }
      }
    },
    "/admin/blogs/edit/{id}": {
      "post": { "summary": "Edit a blog", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "updated, returns blog_slug" }, "404": { "description": "unknown blog" } } }
    },
    "/admin/blogs/delete/{id}": {
      "delete": { "summary": "Delete a blog and its comments", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "deleted" }, "404": { "description": "unknown blog" } } }
    },
    "/api/blog/{id}/comment": {
      "post": { "summary": "Post a comment", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "comment": {"type":"string"}, "slug": {"type":"string"}, "csrf_token": {"type":"string"} } } } } }, "responses": { "201": { "description": "posted" }, "401": { "description": "not signed in, blocked or flagged" }, "404": { "description": "unknown blog" } } }
    },
    "/api/v1/user/comments/{id}": {
      "delete": { "summary": "Delete a comment (owner or admin)", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "deleted" } } }
    },
    "/api/v1/search": {
      "get": { "summary": "Quick search", "parameters": [{"name":"query","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "up to 5 results" }, "404": { "description": "no results, empty list" } } }
    },
    "/search": {
      "get": { "summary": "Faceted search grouped by category", "responses": { "200": { "description": "groups sorted by average views" }, "400": { "description": "no or malformed filter" } } }
    },
    "/api/v1/blogs/{lastID}": {
      "get": { "summary": "Load the next page of blogs", "parameters": [{"name":"lastID","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "blogs" } } }
    },
    "/api/v1/statisics/views/{slug}": {
      "post": { "summary": "Record a view", "parameters": [{"name":"slug","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "recorded" }, "429": { "description": "rate limited" } } }
    },
    "/api/v1/statisics/likes/{slug}": {
      "post": { "summary": "Like a blog", "parameters": [{"name":"slug","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "recorded" }, "429": { "description": "rate limited" } } }
    },
    "/api/v1/user-content/upload": {
      "post": { "summary": "Upload an editor image", "responses": { "200": { "description": "returns location" } } }
    },
    "/api/v1/feedback": {
      "post": { "summary": "Send feedback", "responses": { "201": { "description": "stored" } } }
    },
    "/api/v1/users/{id}/subscribe": {
      "put": { "summary": "Subscribe to the newsletter", "responses": { "200": { "description": "confirmation mail sent" } } }
    },
    "/api/v1/users/verify/{token}": {
      "get": { "summary": "Confirm a newsletter subscription", "responses": { "200": { "description": "confirmed" }, "400": { "description": "invalid or expired token" } } }
    },
    "/api/v1/users/{id}/unsubscribe": {
      "put": { "summary": "Leave the newsletter", "responses": { "200": { "description": "unsubscribed" } } }
    },
    "/api/v1/users/{id}/export": {
      "get": { "summary": "Download account data", "responses": { "200": { "description": "JSON attachment" } } }
    },
    "/api/v1/users/{id}/delete": {
      "delete": { "summary": "Delete the account", "responses": { "200": { "description": "deleted" } } }
    },
    "/admin/users/{id}/block": {
      "post": { "summary": "Block a user", "responses": { "200": { "description": "blocked" } } }
    },
    "/admin/system-messages": {
      "post": { "summary": "Post a system message", "responses": { "201": { "description": "posted" } } }
    },
    "/admin/stats": {
      "get": { "summary": "Category statistics", "responses": { "200": { "description": "stats" } } }
    },
    "/user/authorize": {
      "get": { "summary": "Start the OAuth login", "responses": { "302": { "description": "redirect to the provider" }, "401": { "description": "login failed" } } }
    },
    "/oauth-callback/{provider}": {
      "get": { "summary": "OAuth callback", "responses": { "302": { "description": "signed in or back to authorize with an error" } } }
    },
    "/rss": { "get": { "summary": "RSS feed", "responses": { "200": { "description": "RSS 2.0" } } } },
    "/sitemap": { "get": { "summary": "XML sitemap", "responses": { "200": { "description": "sitemap" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
