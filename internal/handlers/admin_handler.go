package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/middleware"
	"github.com/anonto42/kdiary/backend/internal/models"
	"github.com/anonto42/kdiary/backend/internal/repositories"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// AdminHandler serves the view models of the admin pages. Every route sits
// behind the admin gate.
type AdminHandler struct {
	postRepository repositories.PostRepository
	log            logger.Logger
}

func NewAdminHandler(postRepo repositories.PostRepository, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		postRepository: postRepo,
		log:            log.WithComponent("admin"),
	}
}

func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("", h.Dashboard)
	g.GET("/new-post", h.NewPost)
	g.GET("/edit/:id", h.EditPost)
}

// Dashboard lists every post as a summary row
func (h *AdminHandler) Dashboard(c echo.Context) error {
	posts, err := h.postRepository.ListAll(c.Request().Context())
	if err != nil {
		return toHTTPError(h.log, err, "Failed to fetch posts")
	}

	rows := make([]models.AdminRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, models.AdminRow{
			ID:        p.ID,
			Title:     p.Title,
			Status:    p.Status,
			Rating:    p.Rating,
			CreatedAt: p.CreatedAt,
		})
	}

	identity, _ := middleware.IdentityFromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"user":  identity,
		"posts": rows,
	})
}

// NewPost returns the defaults of a blank post form
func (h *AdminHandler) NewPost(c echo.Context) error {
	return c.JSON(http.StatusOK, models.NewPostDraft())
}

// EditPost returns the stored post for the edit form
func (h *AdminHandler) EditPost(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetByID(c.Request().Context(), postID)
	if err != nil {
		return toHTTPError(h.log, err, "Failed to fetch post", "id", postID)
	}
	return c.JSON(http.StatusOK, post)
}
