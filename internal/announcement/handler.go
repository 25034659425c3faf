package announcement

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// GET /events/:id/announcements
// @Summary List announcements, pinned first
// @Tags Announcements
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {array} Announcement
// @Security BearerAuth
// @Router /api/v1/events/{id}/announcements [get]
func (h *Handler) List(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	items, err := h.Service.ListAnnouncements(c.Request.Context(), accessContext, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /events/:id/announcements
// @Summary Post an announcement (host only)
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param body body CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} Announcement
// @Security BearerAuth
// @Router /api/v1/events/{id}/announcements [post]
func (h *Handler) Create(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	a, err := h.Service.CreateAnnouncement(c.Request.Context(), accessContext, c.Param("id"), req, middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GET /announcements/:id
// @Summary Get one announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} Announcement
// @Security BearerAuth
// @Router /api/v1/announcements/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	a, err := h.Service.GetAnnouncement(c.Request.Context(), accessContext, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// PATCH /announcements/:id
// @Summary Edit an announcement (host only)
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param body body UpdateAnnouncementRequest true "Fields to change"
// @Success 200 {object} Announcement
// @Security BearerAuth
// @Router /api/v1/announcements/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	var req UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	a, err := h.Service.UpdateAnnouncement(c.Request.Context(), accessContext, c.Param("id"), req, middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /announcements/:id
// @Summary Delete an announcement (host only)
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/announcements/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteAnnouncement(c.Request.Context(), accessContext, c.Param("id"), middleware.GetIPFromContext(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "announcement deleted"})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	event.WriteError(c, err)
}
