package httptransport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"quill-server-go/internal/domain/session/model"
	"quill-server-go/internal/platform/storage"
)

// ContentHandler serves posts and categories.
type ContentHandler struct {
	Content *storage.ContentRepository
	Logger  model.Logger
}

type createPostRequest struct {
	Title       string         `json:"title" binding:"required"`
	Body        string         `json:"body"`
	Meta        datatypes.JSON `json:"meta"`
	CategoryIDs []uint         `json:"categoryIds"`
}

type updatePostRequest struct {
	Title       *string        `json:"title"`
	Body        *string        `json:"body"`
	Meta        datatypes.JSON `json:"meta"`
	CategoryIDs []uint         `json:"categoryIds"`
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		RespondError(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

// ListPosts returns a page of posts; ?page= and ?limit= control paging.
func (h *ContentHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}

	posts, total, err := h.Content.ListPosts(c.Request.Context(), (page-1)*limit, limit)
	if err != nil {
		h.Logger.Error("post listing failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not list posts", nil)
		return
	}

	RespondSuccess(c, http.StatusOK, gin.H{
		"posts": posts,
		"total": total,
		"page":  page,
	}, "")
}

// GetPost returns one post by id.
func (h *ContentHandler) GetPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	post, err := h.Content.GetPost(c.Request.Context(), id)
	if err != nil {
		h.Logger.Error("post lookup failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not load post", nil)
		return
	}
	if post == nil {
		RespondError(c, http.StatusNotFound, "post not found", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, post, "")
}

// CreatePost creates a post authored by the caller.
func (h *ContentHandler) CreatePost(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid post payload", nil)
		return
	}

	post, err := h.Content.CreatePost(c.Request.Context(), storage.NewPostParams{
		Title:       req.Title,
		Body:        req.Body,
		AuthorID:    sess.UserID,
		Meta:        req.Meta,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		h.Logger.Error("post creation failed: %v", err)
		RespondError(c, http.StatusBadRequest, "could not create post", nil)
		return
	}
	RespondSuccess(c, http.StatusCreated, post, "post created")
}

// UpdatePost edits a post. Authors may edit their own posts; admins any.
func (h *ContentHandler) UpdatePost(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	existing, err := h.Content.GetPost(c.Request.Context(), id)
	if err != nil {
		h.Logger.Error("post lookup failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not load post", nil)
		return
	}
	if existing == nil {
		RespondError(c, http.StatusNotFound, "post not found", nil)
		return
	}
	if existing.AuthorID != sess.UserID && sess.Role != storage.RoleAdmin {
		RespondError(c, http.StatusForbidden, "not your post", nil)
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid post payload", nil)
		return
	}

	post, err := h.Content.UpdatePost(c.Request.Context(), id, storage.UpdatePostParams{
		Title:       req.Title,
		Body:        req.Body,
		Meta:        req.Meta,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		h.Logger.Error("post update failed: %v", err)
		RespondError(c, http.StatusBadRequest, "could not update post", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, post, "post updated")
}

// DeletePost removes a post with the same ownership rule as UpdatePost.
func (h *ContentHandler) DeletePost(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	existing, err := h.Content.GetPost(c.Request.Context(), id)
	if err != nil {
		h.Logger.Error("post lookup failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not load post", nil)
		return
	}
	if existing == nil {
		RespondError(c, http.StatusNotFound, "post not found", nil)
		return
	}
	if existing.AuthorID != sess.UserID && sess.Role != storage.RoleAdmin {
		RespondError(c, http.StatusForbidden, "not your post", nil)
		return
	}

	if _, err := h.Content.DeletePost(c.Request.Context(), id); err != nil {
		h.Logger.Error("post deletion failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not delete post", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "post deleted")
}

// ListCategories returns all categories.
func (h *ContentHandler) ListCategories(c *gin.Context) {
	categories, err := h.Content.ListCategories(c.Request.Context())
	if err != nil {
		h.Logger.Error("category listing failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not list categories", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, categories, "")
}

// CreateCategory adds a category. Admin only.
func (h *ContentHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid category payload", nil)
		return
	}

	category, err := h.Content.CreateCategory(c.Request.Context(), storage.NewCategoryParams{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		h.Logger.Error("category creation failed: %v", err)
		RespondError(c, http.StatusConflict, "could not create category", nil)
		return
	}
	RespondSuccess(c, http.StatusCreated, category, "category created")
}

// DeleteCategory removes a category. Admin only.
func (h *ContentHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.Content.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		h.Logger.Error("category deletion failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not delete category", nil)
		return
	}
	if !deleted {
		RespondError(c, http.StatusNotFound, "category not found", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "category deleted")
}
