package dto

import (
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
)

// ReconciliationRunResponse defines the data returned for an audit run.
type ReconciliationRunResponse struct {
	RunID       string            `json:"runID"`
	SchoolID    string            `json:"schoolID"`
	TriggeredBy string            `json:"triggeredBy,omitempty"`
	Status      string            `json:"status"`
	StartedAt   time.Time         `json:"startedAt"`
	FinishedAt  *time.Time        `json:"finishedAt,omitempty"`
	Summary     domain.RunSummary `json:"summary"`
}

// ReconciliationFindingResponse defines the data returned for a finding.
type ReconciliationFindingResponse struct {
	FindingID  string            `json:"findingID"`
	RunID      string            `json:"runID"`
	CheckCode  string            `json:"checkCode"`
	Severity   string            `json:"severity"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityID"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// RunWithFindingsResponse combines a run and its findings.
type RunWithFindingsResponse struct {
	Run      ReconciliationRunResponse       `json:"run"`
	Findings []ReconciliationFindingResponse `json:"findings"`
}

// ToReconciliationRunResponse converts a domain run to its DTO.
func ToReconciliationRunResponse(run *domain.ReconciliationRun) ReconciliationRunResponse {
	return ReconciliationRunResponse{
		RunID:       run.RunID,
		SchoolID:    run.SchoolID,
		TriggeredBy: run.TriggeredBy,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Summary:     run.Summary,
	}
}

// ToReconciliationRunResponses converts domain runs to DTOs.
func ToReconciliationRunResponses(runs []domain.ReconciliationRun) []ReconciliationRunResponse {
	responses := make([]ReconciliationRunResponse, len(runs))
	for i := range runs {
		responses[i] = ToReconciliationRunResponse(&runs[i])
	}
	return responses
}

// ToReconciliationFindingResponse converts a domain finding to its DTO.
func ToReconciliationFindingResponse(f *domain.ReconciliationFinding) ReconciliationFindingResponse {
	return ReconciliationFindingResponse{
		FindingID:  f.FindingID,
		RunID:      f.RunID,
		CheckCode:  string(f.CheckCode),
		Severity:   string(f.Severity),
		EntityType: f.EntityType,
		EntityID:   f.EntityID,
		Message:    f.Message,
		Details:    f.Details,
		CreatedAt:  f.CreatedAt,
	}
}

// ToReconciliationFindingResponses converts domain findings to DTOs.
func ToReconciliationFindingResponses(findings []domain.ReconciliationFinding) []ReconciliationFindingResponse {
	responses := make([]ReconciliationFindingResponse, len(findings))
	for i := range findings {
		responses[i] = ToReconciliationFindingResponse(&findings[i])
	}
	return responses
}
