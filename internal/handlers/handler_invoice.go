package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/ports/platform"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/core/services"
	"github.com/mativs/mattilda/internal/dto"
	"github.com/mativs/mattilda/internal/middleware"
)

// invoiceHandler handles HTTP requests related to invoices.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
	dispatcher     platform.TaskDispatcher
}

// newInvoiceHandler creates a new invoiceHandler.
func newInvoiceHandler(invoiceService portssvc.InvoiceSvcFacade, dispatcher platform.TaskDispatcher) *invoiceHandler {
	return &invoiceHandler{
		invoiceService: invoiceService,
		dispatcher:     dispatcher,
	}
}

// generateInvoice godoc
// @Summary Generate an invoice for a student
// @Description Accrues interest, closes any open invoice and issues a new one over all unpaid charges
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   studentID path string true "Student ID"
// @Param   request body dto.GenerateInvoiceRequest false "Generation options"
// @Success 201 {object} dto.InvoiceResponse "The generated invoice"
// @Failure 400 {object} map[string]string "No unpaid charges to invoice"
// @Failure 404 {object} map[string]string "Student not found"
// @Failure 409 {object} map[string]string "A billing operation is already in progress"
// @Router /students/{studentID}/invoices [post]
func (h *invoiceHandler) generateInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	studentID := c.Param("studentID")

	var generateReq dto.GenerateInvoiceRequest
	// An empty body means "as of now".
	if err := c.ShouldBindJSON(&generateReq); err != nil && !errors.Is(err, io.EOF) {
		logger.Error("Failed to bind JSON for generateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	asOf := time.Now().UTC()
	if generateReq.AsOf != nil {
		asOf = *generateReq.AsOf
	}

	actorID := middleware.GetActorIDFromContext(c)
	invoice, err := h.invoiceService.Generate(c.Request.Context(), schoolID, studentID, asOf, actorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		case errors.Is(err, services.ErrNoChargesToInvoice), errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrLockContention):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to generate invoice", slog.String("error", err.Error()), slog.String("student_id", studentID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invoice"})
		}
		return
	}

	logger.Info("Invoice generated", slog.String("invoice_id", invoice.InvoiceID), slog.String("student_id", studentID))
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice))
}

// generateSchoolInvoices godoc
// @Summary Generate invoices for every student in the school
// @Description Enqueues a school-wide generation pass; per-student failures are isolated
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   request body dto.GenerateInvoiceRequest false "Generation options"
// @Success 202 {object} map[string]string "Generation queued"
// @Router /invoices/generate [post]
func (h *invoiceHandler) generateSchoolInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}

	var generateReq dto.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&generateReq); err != nil && !errors.Is(err, io.EOF) {
		logger.Error("Failed to bind JSON for generateSchoolInvoices", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	asOf := time.Now().UTC()
	if generateReq.AsOf != nil {
		asOf = *generateReq.AsOf
	}

	actorID := middleware.GetActorIDFromContext(c)
	if err := h.dispatcher.EnqueueSchoolInvoiceGeneration(c.Request.Context(), schoolID, asOf, actorID); err != nil {
		logger.Error("Failed to enqueue school generation", slog.String("error", err.Error()), slog.String("school_id", schoolID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue generation"})
		return
	}

	logger.Info("School generation queued", slog.String("school_id", schoolID))
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// getInvoice godoc
// @Summary Get an invoice
// @Description Retrieves an invoice with its item snapshot
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse "The invoice"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Router /invoices/{invoiceID} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	invoiceID := c.Param("invoiceID")

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), schoolID, invoiceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		logger.Error("Failed to get invoice", slog.String("error", err.Error()), slog.String("invoice_id", invoiceID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoice"})
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

// listStudentInvoices godoc
// @Summary List a student's invoices
// @Description Retrieves a paginated list of invoices, newest first
// @Tags invoices
// @Produce  json
// @Param   studentID path string true "Student ID"
// @Param   limit query int false "Page size"
// @Param   offset query int false "Page offset"
// @Success 200 {object} map[string][]dto.InvoiceResponse "Invoices"
// @Router /students/{studentID}/invoices [get]
func (h *invoiceHandler) listStudentInvoices(c *gin.Context) {
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

	invoices, err := h.invoiceService.ListInvoicesByStudent(c.Request.Context(), schoolID, studentID, params)
	if err != nil {
		logger.Error("Failed to list invoices", slog.String("error", err.Error()), slog.String("student_id", studentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": dto.ToInvoiceResponses(invoices)})
}

// registerInvoiceRoutes registers invoice specific routes
func registerInvoiceRoutes(group *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, dispatcher platform.TaskDispatcher) {
	invoiceHandler := newInvoiceHandler(invoiceService, dispatcher)

	invoices := group.Group("/invoices")
	{
		invoices.POST("/generate", invoiceHandler.generateSchoolInvoices)
		invoices.GET("/:invoiceID", invoiceHandler.getInvoice)
	}
	group.POST("/students/:studentID/invoices", invoiceHandler.generateInvoice)
	group.GET("/students/:studentID/invoices", invoiceHandler.listStudentInvoices)
}
