package reports

import (
	"fmt"
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

// ===========================
// 📤 GET /events/:id/members/export
// @Summary Export the member roster (host only)
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Event ID"
// @Param format query string false "csv (default), xlsx or pdf"
// @Param status query string false "Membership status filter"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /api/v1/events/{id}/members/export [get]
func (h *Handler) ExportMembers(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	res, err := h.Service.ExportMembers(c.Request.Context(), accessContext, c.Param("id"), c.Query("status"), c.Query("format"), middleware.GetIPFromContext(c))
	if err != nil {
		event.WriteError(c, err)
		return
	}
	writeFile(c, res)
}

// ===========================
// 📤 GET /events/:id/audit/export
// @Summary Export the event audit trail (host only)
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Event ID"
// @Param format query string false "csv (default), xlsx or pdf"
// @Param date_range query string false "all, daily, weekly, monthly, yearly or custom"
// @Param start_date query string false "YYYY-MM-DD for custom"
// @Param end_date query string false "YYYY-MM-DD for custom"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /api/v1/events/{id}/audit/export [get]
func (h *Handler) ExportAuditLogs(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	res, err := h.Service.ExportAuditLogs(c.Request.Context(), accessContext, c.Param("id"),
		c.Query("format"), c.Query("date_range"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		event.WriteError(c, err)
		return
	}
	writeFile(c, res)
}

func writeFile(c *gin.Context, res *ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}
