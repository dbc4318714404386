package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classroll/classroll-api/internal/dto"
	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/internal/service"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
	"github.com/classroll/classroll-api/pkg/response"
)

// AdminHandler exposes the summary, record browser and export endpoints.
type AdminHandler struct {
	attendance *service.AttendanceService
	reports    *service.ReportService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(attendance *service.AttendanceService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{attendance: attendance, reports: reports}
}

// Summary godoc
// @Summary Attendance roll-up grouped by day and subject
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/summary [get]
func (h *AdminHandler) Summary(c *gin.Context) {
	res, err := h.attendance.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Records godoc
// @Summary Raw attendance records
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Subject filter"
// @Param roll_number query string false "Roll number filter"
// @Param date_from query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/records [get]
func (h *AdminHandler) Records(c *gin.Context) {
	req := dto.RecordsRequest{
		Subject:    c.Query("subject"),
		RollNumber: c.Query("roll_number"),
		SortOrder:  c.Query("sort_order"),
	}
	if raw := c.Query("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_from must be YYYY-MM-DD"))
			return
		}
		req.DateFrom = &from
	}
	if raw := c.Query("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_to must be YYYY-MM-DD"))
			return
		}
		req.DateTo = &to
	}
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	records, total, err := h.attendance.ListRecords(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, &models.Pagination{
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalCount: total,
	})
}

// CreateReport godoc
// @Summary Queue an attendance export
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/reports [post]
func (h *AdminHandler) CreateReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	res, err := h.reports.Enqueue(c.Request.Context(), req, claims.RollNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res, nil)
}

// ListReports godoc
// @Summary Caller's recent export jobs
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum jobs returned"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/reports [get]
func (h *AdminHandler) ListReports(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	res, err := h.reports.ListRecent(c.Request.Context(), claims.RollNumber, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// GetReport godoc
// @Summary Export job status
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id} [get]
func (h *AdminHandler) GetReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.reports.Get(c.Request.Context(), c.Param("id"), claims.RollNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
