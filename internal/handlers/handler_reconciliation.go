package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mativs/mattilda/internal/apperrors"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/dto"
	"github.com/mativs/mattilda/internal/middleware"
)

// reconciliationHandler handles HTTP requests related to audit runs.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// newReconciliationHandler creates a new reconciliationHandler.
func newReconciliationHandler(reconciliationService portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

// startRun godoc
// @Summary Start a reconciliation run
// @Description Creates a queued audit run over the school's ledger and dispatches it for execution
// @Tags reconciliation
// @Produce  json
// @Success 202 {object} dto.ReconciliationRunResponse "The queued run"
// @Router /reconciliation/runs [post]
func (h *reconciliationHandler) startRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	actorID := middleware.GetActorIDFromContext(c)

	run, err := h.reconciliationService.StartRun(c.Request.Context(), schoolID, actorID)
	if err != nil {
		logger.Error("Failed to start reconciliation run", slog.String("error", err.Error()), slog.String("school_id", schoolID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start run"})
		return
	}

	logger.Info("Reconciliation run queued", slog.String("run_id", run.RunID))
	c.JSON(http.StatusAccepted, dto.ToReconciliationRunResponse(run))
}

// getRun godoc
// @Summary Get a reconciliation run
// @Description Retrieves a run together with its findings
// @Tags reconciliation
// @Produce  json
// @Param   runID path string true "Run ID"
// @Success 200 {object} dto.RunWithFindingsResponse "The run and its findings"
// @Failure 404 {object} map[string]string "Run not found"
// @Router /reconciliation/runs/{runID} [get]
func (h *reconciliationHandler) getRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}
	runID := c.Param("runID")

	run, findings, err := h.reconciliationService.GetRunWithFindings(c.Request.Context(), schoolID, runID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		logger.Error("Failed to get reconciliation run", slog.String("error", err.Error()), slog.String("run_id", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run"})
		return
	}

	c.JSON(http.StatusOK, dto.RunWithFindingsResponse{
		Run:      dto.ToReconciliationRunResponse(run),
		Findings: dto.ToReconciliationFindingResponses(findings),
	})
}

// listRuns godoc
// @Summary List reconciliation runs
// @Description Retrieves a paginated list of the school's runs, newest first
// @Tags reconciliation
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   offset query int false "Page offset"
// @Success 200 {object} map[string][]dto.ReconciliationRunResponse "Runs"
// @Router /reconciliation/runs [get]
func (h *reconciliationHandler) listRuns(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	schoolID, ok := middleware.GetSchoolIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "School scope missing"})
		return
	}

	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
		return
	}

	runs, err := h.reconciliationService.ListRuns(c.Request.Context(), schoolID, params)
	if err != nil {
		logger.Error("Failed to list reconciliation runs", slog.String("error", err.Error()), slog.String("school_id", schoolID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": dto.ToReconciliationRunResponses(runs)})
}

// registerReconciliationRoutes registers reconciliation specific routes
func registerReconciliationRoutes(group *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	reconciliationHandler := newReconciliationHandler(reconciliationService)

	runs := group.Group("/reconciliation/runs")
	{
		runs.POST("", reconciliationHandler.startRun)
		runs.GET("", reconciliationHandler.listRuns)
		runs.GET("/:runID", reconciliationHandler.getRun)
	}
}
