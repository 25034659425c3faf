package auditlog

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/middleware"
)

// HostChecker answers whether a user hosts an event.
type HostChecker interface {
	IsHost(ctx context.Context, eventID, userID string) (bool, error)
}

type Handler struct {
	service Service
	hosts   HostChecker
}

func NewHandler(service Service, hosts HostChecker) *Handler {
	return &Handler{service: service, hosts: hosts}
}

// GetEventAuditLogs handles GET /events/:id/audit
// @Summary Event audit trail
// @Description Audit rows recorded for an event (host only)
// @Tags AuditLog
// @Produce json
// @Param id path string true "Event ID"
// @Param action query string false "Filter by action"
// @Param status query string false "Filter by status"
// @Param from_date query string false "Filter from date (YYYY-MM-DD)"
// @Param to_date query string false "Filter to date (YYYY-MM-DD)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Records per page (default: 20)"
// @Success 200 {object} PaginatedAuditLogs
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/audit [get]
func (h *Handler) GetEventAuditLogs(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	eventID := c.Param("id")
	isHost, err := h.hosts.IsHost(c.Request.Context(), eventID, accessContext.UserID)
	if err != nil {
		log.Printf("❌ audit host check for event %s: %v", eventID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit logs"})
		return
	}
	if !isHost {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the host can view the audit trail"})
		return
	}

	filter := AuditLogFilter{
		EventID: &eventID,
		Action:  c.Query("action"),
		Status:  c.Query("status"),
	}

	if fromDateStr := c.Query("from_date"); fromDateStr != "" {
		fromDate, err := time.Parse("2006-01-02", fromDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from_date format. Use YYYY-MM-DD"})
			return
		}
		filter.FromDate = &fromDate
	}
	if toDateStr := c.Query("to_date"); toDateStr != "" {
		toDate, err := time.Parse("2006-01-02", toDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to_date format. Use YYYY-MM-DD"})
			return
		}
		endOfDay := toDate.Add(24*time.Hour - time.Second)
		filter.ToDate = &endOfDay
	}

	filter.Page = 1
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	filter.Limit = 20
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= 100 {
		filter.Limit = limit
	}

	result, err := h.service.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		log.Printf("❌ audit logs for event %s: %v", eventID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit logs"})
		return
	}

	c.JSON(http.StatusOK, result)
}
