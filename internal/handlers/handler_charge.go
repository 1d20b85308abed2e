package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mativs/mattilda/internal/apperrors"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/core/services"
	"github.com/mativs/mattilda/internal/dto"
	"github.com/mativs/mattilda/internal/middleware"
)

// chargeHandler handles HTTP requests related to charges and balances.
type chargeHandler struct {
	chargeService portssvc.ChargeSvcFacade
}

// newChargeHandler creates a new chargeHandler.
func newChargeHandler(chargeService portssvc.ChargeSvcFacade) *chargeHandler {
	return &chargeHandler{
		chargeService: chargeService,
	}
}

// createCharge godoc
// @Summary Record a manual charge
// @Description Records a new fee, penalty or credit charge against a student
// @Tags charges
// @Accept  json
// @Produce  json
// @Param   charge body dto.CreateChargeRequest true "Charge details"
// @Success 201 {object} dto.ChargeResponse "The created charge"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /charges [post]
func (h *chargeHandler) createCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}

	var createReq dto.CreateChargeRequest
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for createCharge", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorID := middleware.GetActorIDFromContext(c)
	charge, err := h.chargeService.CreateCharge(c.Request.Context(), schoolID, createReq, actorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		case errors.Is(err, services.ErrZeroAmount), errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create charge", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create charge"})
		}
		return
	}

	logger.Info("Charge created", slog.String("charge_id", charge.ChargeID), slog.String("student_id", charge.StudentID))
	c.JSON(http.StatusCreated, dto.ToChargeResponse(charge))
}

// getCharge godoc
// @Summary Get a charge
// @Description Retrieves a charge by ID within the tenant school
// @Tags charges
// @Produce  json
// @Param   chargeID path string true "Charge ID"
// @Success 200 {object} dto.ChargeResponse "The charge"
// @Failure 404 {object} map[string]string "Charge not found"
// @Router /charges/{chargeID} [get]
func (h *chargeHandler) getCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	chargeID := c.Param("chargeID")

	charge, err := h.chargeService.GetChargeByID(c.Request.Context(), schoolID, chargeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Charge not found"})
			return
		}
		logger.Error("Failed to get charge", slog.String("error", err.Error()), slog.String("charge_id", chargeID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve charge"})
		return
	}

	c.JSON(http.StatusOK, dto.ToChargeResponse(charge))
}

// cancelCharge godoc
// @Summary Cancel a charge
// @Description Marks an unpaid charge as cancelled, excluding it from balances
// @Tags charges
// @Produce  json
// @Param   chargeID path string true "Charge ID"
// @Success 204 "Charge cancelled"
// @Failure 404 {object} map[string]string "Charge not found"
// @Failure 409 {object} map[string]string "Charge is not cancellable"
// @Router /charges/{chargeID}/cancel [post]
func (h *chargeHandler) cancelCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	chargeID := c.Param("chargeID")
	actorID := middleware.GetActorIDFromContext(c)

	err := h.chargeService.CancelCharge(c.Request.Context(), schoolID, chargeID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Charge not found"})
		case errors.Is(err, services.ErrChargeNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to cancel charge", slog.String("error", err.Error()), slog.String("charge_id", chargeID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel charge"})
		}
		return
	}

	logger.Info("Charge cancelled", slog.String("charge_id", chargeID))
	c.Status(http.StatusNoContent)
}

// listUnpaidCharges godoc
// @Summary List a student's unpaid charges
// @Description Retrieves every unpaid, non-cancelled charge for a student
// @Tags charges
// @Produce  json
// @Param   studentID path string true "Student ID"
// @Success 200 {object} map[string][]dto.ChargeResponse "Unpaid charges"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{studentID}/charges [get]
func (h *chargeHandler) listUnpaidCharges(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	studentID := c.Param("studentID")

	charges, err := h.chargeService.ListUnpaidCharges(c.Request.Context(), schoolID, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		logger.Error("Failed to list unpaid charges", slog.String("error", err.Error()), slog.String("student_id", studentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list charges"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"charges": dto.ToChargeResponses(charges)})
}

// getStudentBalance godoc
// @Summary Get a student's balance summary
// @Description Retrieves the student's financial snapshot: charged, paid and unpaid totals
// @Tags charges
// @Produce  json
// @Param   studentID path string true "Student ID"
// @Success 200 {object} dto.BalanceSummaryResponse "Balance summary"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{studentID}/balance [get]
func (h *chargeHandler) getStudentBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	studentID := c.Param("studentID")

	summary, err := h.chargeService.GetStudentBalance(c.Request.Context(), schoolID, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		logger.Error("Failed to get student balance", slog.String("error", err.Error()), slog.String("student_id", studentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceSummaryResponse(summary))
}

// registerChargeRoutes registers charge and balance specific routes
func registerChargeRoutes(group *gin.RouterGroup, chargeService portssvc.ChargeSvcFacade) {
	chargeHandler := newChargeHandler(chargeService)

	charges := group.Group("/charges")
	{
		charges.POST("", chargeHandler.createCharge)
		charges.GET("/:chargeID", chargeHandler.getCharge)
		charges.POST("/:chargeID/cancel", chargeHandler.cancelCharge)
	}
	group.GET("/students/:studentID/charges", chargeHandler.listUnpaidCharges)
	group.GET("/students/:studentID/balance", chargeHandler.getStudentBalance)
}
