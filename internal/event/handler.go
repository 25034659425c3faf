package event

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// ===========================
// 🎯 Create Event - POST /events
// @Summary Create an event
// @Description The caller becomes the host; an invite code is generated.
// @Tags Events
// @Accept json
// @Produce json
// @Param body body CreateEventRequest true "Event"
// @Success 201 {object} EventDetail
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	detail, err := h.Service.CreateEvent(c.Request.Context(), accessContext, &req, middleware.GetIPFromContext(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ===========================
// 🔍 Get Event - GET /events/:id
// @Summary Event detail (host or approved member)
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} EventDetail
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	detail, err := h.Service.GetEventDetail(c.Request.Context(), accessContext, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ===========================
// 🔗 Invite preview - GET /invites/:code
// @Summary Public event preview by invite code
// @Tags Invites
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} EventPreview
// @Failure 404 {object} map[string]string
// @Router /api/v1/invites/{code} [get]
func (h *Handler) GetInvitePreview(c *gin.Context) {
	preview, err := h.Service.GetEventByInviteCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ===========================
// 📋 GET /events/hosted
// @Summary Events hosted by the caller
// @Tags Events
// @Produce json
// @Success 200 {array} Event
// @Security BearerAuth
// @Router /api/v1/events/hosted [get]
func (h *Handler) ListHostedEvents(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	events, err := h.Service.ListHostedEvents(c.Request.Context(), accessContext.UserID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ===========================
// 📋 GET /events/participating
// @Summary Events the caller is an approved member of
// @Tags Events
// @Produce json
// @Success 200 {array} Event
// @Security BearerAuth
// @Router /api/v1/events/participating [get]
func (h *Handler) ListParticipatingEvents(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	events, err := h.Service.ListParticipatingEvents(c.Request.Context(), accessContext.UserID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ===========================
// 📊 GET /dashboard
// @Summary Dashboard counts for the caller
// @Tags Events
// @Produce json
// @Success 200 {object} DashboardStats
// @Security BearerAuth
// @Router /api/v1/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	stats, err := h.Service.Dashboard(c.Request.Context(), accessContext)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ===========================
// 🛠 PATCH /events/:id
// @Summary Update an event (host only)
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to change"
// @Success 200 {object} EventDetail
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id} [patch]
func (h *Handler) UpdateEvent(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	detail, err := h.Service.UpdateEvent(c.Request.Context(), accessContext, c.Param("id"), &req, middleware.GetIPFromContext(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ===========================
// 🔒 PUT /events/:id/close
// @Summary Close or reopen an event (host only)
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param body body CloseEventRequest false "Defaults to closing"
// @Success 200 {object} EventDetail
// @Security BearerAuth
// @Router /api/v1/events/{id}/close [put]
func (h *Handler) CloseEvent(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	closed := true
	if c.Request.ContentLength > 0 {
		var req CloseEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}
		if req.IsClosed != nil {
			closed = *req.IsClosed
		}
	}

	detail, err := h.Service.SetClosed(c.Request.Context(), accessContext, c.Param("id"), closed, middleware.GetIPFromContext(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ===========================
// ❌ DELETE /events/:id
// @Summary Delete an event with its members and announcements (host only)
// @Tags Events
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteEvent(c.Request.Context(), accessContext, c.Param("id"), middleware.GetIPFromContext(c)); err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted successfully"})
}

// WriteError maps event errors to HTTP responses.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, ErrNotHost), errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEventClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ event request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
