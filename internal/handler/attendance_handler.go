package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classroll/classroll-api/internal/dto"
	"github.com/classroll/classroll-api/internal/service"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
	"github.com/classroll/classroll-api/pkg/response"
)

// AttendanceHandler exposes the student-facing attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
	metrics *service.MetricsService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, metrics: metrics}
}

// Schedule godoc
// @Summary Subject timetable with the caller's standing
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /subjects [get]
func (h *AttendanceHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.Schedule(c.Request.Context(), studentFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Today godoc
// @Summary Caller's standing for every subject today
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.Today(c.Request.Context(), studentFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Eligibility godoc
// @Summary Check whether the caller may mark a subject right now
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/eligibility/{subject} [get]
func (h *AttendanceHandler) Eligibility(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.Evaluate(c.Request.Context(), studentFromClaims(claims), c.Param("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Mark godoc
// @Summary Mark attendance for a subject
// @Description Records the caller as present; the server decides date and time
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.MarkRequest true "Mark payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}

	res, err := h.service.Mark(c.Request.Context(), studentFromClaims(claims), req.Subject)
	switch {
	case err == nil:
		h.metrics.ObserveMark("marked")
		response.JSON(c, http.StatusCreated, res, nil)
	case errors.Is(err, appErrors.ErrAlreadyMarked) && res != nil:
		// The existing record rides along so clients can show when the
		// mark actually happened.
		h.metrics.ObserveMark("already_marked")
		response.JSON(c, http.StatusConflict, res, nil)
	default:
		h.metrics.ObserveMark(appErrors.FromError(err).Code)
		response.Error(c, err)
	}
}

// DebugTime godoc
// @Summary Engine clock reading
// @Tags Debug
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /debug/time [get]
func (h *AttendanceHandler) DebugTime(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.DebugTime(), nil)
}
