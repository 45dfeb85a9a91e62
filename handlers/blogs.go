package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/comments"
	"github.com/inkbloom/inkbloom/internal/notices"
	"github.com/inkbloom/inkbloom/pkg/middleware"
)

// MaxUploadBytes caps cover images and editor uploads.
const MaxUploadBytes = 8 << 20

type BlogHandler struct {
	blogs    *blogs.Service
	comments *comments.Service
	notices  *notices.Service
	pages    *Pages
}

func NewBlogHandler(b *blogs.Service, cm *comments.Service, n *notices.Service, pages *Pages) *BlogHandler {
	return &BlogHandler{blogs: b, comments: cm, notices: n, pages: pages}
}

// Register mounts the public pages on r, the JSON routes on api and the
// editor routes on admin. admin must enforce RequireAdmin and RequireCSRF.
func (h *BlogHandler) Register(r, api, admin gin.IRoutes) {
	r.GET("/", h.Index)
	r.GET("/blogs", h.List)
	r.GET("/blogs/:slug", h.Show)
	api.GET("/blogs/:lastID", h.LoadMore)

	admin.GET("/admin/blogs/create", h.NewPage)
	admin.GET("/admin/blogs/edit/:id", h.EditPage)
	admin.POST("/admin/blogs/create", h.Create)
	admin.POST("/admin/blogs/edit/:id", h.Edit)
	admin.DELETE("/admin/blogs/delete/:id", h.Delete)
	admin.POST("/api/v1/user-content/upload", h.Upload)
}

func (h *BlogHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	latest, featured, err := h.blogs.Home(ctx, viewerOf(middleware.CurrentSession(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	msg, err := h.notices.Latest(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Render(c, "index", gin.H{"blogs": latest, "featured_blogs": featured, "system_message": msg})
}

func (h *BlogHandler) List(c *gin.Context) {
	list, err := h.blogs.All(c.Request.Context(), viewerOf(middleware.CurrentSession(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Render(c, "blogs", gin.H{"blogs": list})
}

func (h *BlogHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := h.blogs.Get(ctx, c.Param("slug"), viewerOf(middleware.CurrentSession(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.comments.ForBlog(ctx, b.BlogID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Render(c, "blog", gin.H{"blog": b, "comments": list})
}

func (h *BlogHandler) LoadMore(c *gin.Context) {
	list, err := h.blogs.LoadMore(c.Request.Context(), c.Param("lastID"), viewerOf(middleware.CurrentSession(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "", gin.H{"blogs": list})
}

func (h *BlogHandler) NewPage(c *gin.Context) {
	h.pages.Render(c, "create_blog", nil)
}

func (h *BlogHandler) EditPage(c *gin.Context) {
	b, err := h.blogs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	tags := b.Tags
	if b.Featured {
		tags = append([]string{blogs.FeaturedTag}, tags...)
	}
	h.pages.Render(c, "edit_blog", gin.H{"blog": b, "tags": strings.Join(tags, ", ")})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxUploadBytes {
		return nil, apperr.Validation("The uploaded file is too large!")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Validation(apperr.MsgBadRequest)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(data) > MaxUploadBytes {
		return nil, apperr.Validation("The uploaded file is too large!")
	}
	return data, nil
}

// formFile reads an optional multipart file. A missing file yields nil.
func formFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation(apperr.MsgBadRequest)
	}
	return readUpload(fh)
}

func draftFromForm(c *gin.Context) (blogs.Draft, error) {
	summary := c.PostForm("summary")
	if summary == "" {
		summary = c.PostForm("description")
	}
	cover, err := formFile(c, "cover_image")
	if err != nil {
		return blogs.Draft{}, err
	}
	return blogs.Draft{
		Title:      c.PostForm("title"),
		Summary:    summary,
		Content:    c.PostForm("content"),
		Tags:       c.PostForm("tags"),
		Category:   c.PostForm("category"),
		Visibility: c.PostForm("visibility"),
		Cover:      cover,
	}, nil
}

func (h *BlogHandler) Create(c *gin.Context) {
	d, err := draftFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	b, err := h.blogs.Create(c.Request.Context(), authorOf(middleware.CurrentSession(c)), d)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusCreated, "The blog has been successfully created!", gin.H{"blog_slug": b.Slug})
}

func (h *BlogHandler) Edit(c *gin.Context) {
	d, err := draftFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	b, err := h.blogs.Edit(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The blog has been successfully updated!", gin.H{"blog_slug": b.Slug})
}

func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.blogs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "The blog has been successfully deleted!", nil)
}

// Upload stores an editor image and returns {location} for the editor.
func (h *BlogHandler) Upload(c *gin.Context) {
	data, err := formFile(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}
	loc, err := h.blogs.UploadMedia(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Success(c, http.StatusOK, "", gin.H{"location": loc})
}
