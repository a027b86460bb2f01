package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/models"
	"github.com/anonto42/kdiary/backend/internal/repositories"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	log            logger.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, log logger.Logger) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		log:            log.WithComponent("posts"),
	}
}

// RegisterPostRoutes registers post-related routes. writeGuard wraps the
// mutating routes.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, writeGuard ...echo.MiddlewareFunc) {
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/latest", h.GetLatestPost)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts", h.CreatePost, writeGuard...)
	g.PUT("/posts/:id", h.UpdatePost, writeGuard...)
	g.DELETE("/posts/:id", h.DeletePost, writeGuard...)
}

// GetPosts lists every post, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.postRepository.ListAll(c.Request().Context())
	if err != nil {
		return toHTTPError(h.log, err, "Failed to fetch posts")
	}
	return c.JSON(http.StatusOK, posts)
}

// GetLatestPost returns the most recent post
func (h *PostHandler) GetLatestPost(c echo.Context) error {
	post, err := h.postRepository.GetLatest(c.Request().Context())
	if err != nil {
		return toHTTPError(h.log, err, "Failed to fetch latest post")
	}
	return c.JSON(http.StatusOK, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetByID(c.Request().Context(), postID)
	if err != nil {
		return toHTTPError(h.log, err, "Failed to fetch post", "id", postID)
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var draft models.Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	id, err := h.postRepository.Create(c.Request().Context(), draft)
	if err != nil {
		return toHTTPError(h.log, err, "Failed to create post", "title", draft.Title)
	}

	h.log.Info("post created", "id", id)
	return c.JSON(http.StatusCreated, map[string]any{"id": id, "success": true})
}

// UpdatePost applies a partial update to a post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	postID := c.Param("id")

	var update models.PostUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if err := h.postRepository.Update(c.Request().Context(), postID, update); err != nil {
		return toHTTPError(h.log, err, "Failed to update post", "id", postID)
	}

	h.log.Info("post updated", "id", postID)
	return c.JSON(http.StatusOK, map[string]any{"id": postID, "success": true})
}

// DeletePost deletes a post
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID := c.Param("id")

	if err := h.postRepository.Delete(c.Request().Context(), postID); err != nil {
		return toHTTPError(h.log, err, "Failed to delete post", "id", postID)
	}

	h.log.Info("post deleted", "id", postID)
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
