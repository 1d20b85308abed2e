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

// paymentHandler handles HTTP requests related to payments.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// newPaymentHandler creates a new paymentHandler.
func newPaymentHandler(paymentService portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{
		paymentService: paymentService,
	}
}

// createPayment godoc
// @Summary Record and allocate a payment
// @Description Records a payment against an open invoice and allocates it across the invoice's charges
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.CreatePaymentResponse "The stored payment and its allocation outcome"
// @Failure 400 {object} map[string]string "Invalid amount or student mismatch"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice not open, overdue, or allocation in progress"
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}

	var createReq dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for createPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorID := middleware.GetActorIDFromContext(c)
	payment, allocation, err := h.paymentService.CreatePayment(c.Request.Context(), schoolID, createReq, actorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrInvoiceStudentMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvoiceNotOpen),
			errors.Is(err, services.ErrInvoiceOverdue),
			errors.Is(err, services.ErrLockContention):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		}
		return
	}

	logger.Info("Payment allocated",
		slog.String("payment_id", payment.PaymentID),
		slog.String("invoice_id", payment.InvoiceID))
	c.JSON(http.StatusCreated, dto.CreatePaymentResponse{
		Payment:    dto.ToPaymentResponse(payment),
		Allocation: dto.ToAllocationResultResponse(allocation),
	})
}

// recordOverdueFunds godoc
// @Summary Record funds received for an overdue invoice
// @Description Stores arriving money as a carry credit instead of allocating it
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   funds body dto.RecordOverdueFundsRequest true "Received funds"
// @Success 201 {object} dto.ChargeResponse "The carry credit charge"
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice is not overdue"
// @Router /invoices/{invoiceID}/overdue-funds [post]
func (h *paymentHandler) recordOverdueFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	invoiceID := c.Param("invoiceID")

	var fundsReq dto.RecordOverdueFundsRequest
	if err := c.ShouldBindJSON(&fundsReq); err != nil {
		logger.Error("Failed to bind JSON for recordOverdueFunds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorID := middleware.GetActorIDFromContext(c)
	credit, err := h.paymentService.RecordOverdueFunds(c.Request.Context(), schoolID, invoiceID, fundsReq, actorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, services.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvoiceNotOverdue):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record overdue funds", slog.String("error", err.Error()), slog.String("invoice_id", invoiceID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record funds"})
		}
		return
	}

	logger.Info("Overdue funds recorded", slog.String("charge_id", credit.ChargeID), slog.String("invoice_id", invoiceID))
	c.JSON(http.StatusCreated, dto.ToChargeResponse(credit))
}

// listStudentPayments godoc
// @Summary List a student's payments
// @Description Retrieves a paginated list of payments, newest first
// @Tags payments
// @Produce  json
// @Param   studentID path string true "Student ID"
// @Param   limit query int false "Page size"
// @Param   offset query int false "Page offset"
// @Success 200 {object} map[string][]dto.PaymentResponse "Payments"
// @Router /students/{studentID}/payments [get]
func (h *paymentHandler) listStudentPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	studentID := c.Param("studentID")

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
		return
	}

	payments, err := h.paymentService.ListPaymentsByStudent(c.Request.Context(), schoolID, studentID, params)
	if err != nil {
		logger.Error("Failed to list payments", slog.String("error", err.Error()), slog.String("student_id", studentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": dto.ToPaymentResponses(payments)})
}

// registerPaymentRoutes registers payment specific routes
func registerPaymentRoutes(group *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	paymentHandler := newPaymentHandler(paymentService)

	group.POST("/payments", paymentHandler.createPayment)
	group.POST("/invoices/:invoiceID/overdue-funds", paymentHandler.recordOverdueFunds)
	group.GET("/students/:studentID/payments", paymentHandler.listStudentPayments)
}
