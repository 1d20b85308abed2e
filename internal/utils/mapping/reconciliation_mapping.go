package mapping

import (
	"encoding/json"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/models"
)

// ToModelReconciliationRun converts a domain run, serializing the summary.
func ToModelReconciliationRun(d domain.ReconciliationRun) (models.ReconciliationRun, error) {
	summary, err := json.Marshal(d.Summary)
	if err != nil {
		return models.ReconciliationRun{}, err
	}
	return models.ReconciliationRun{
		RunID:       d.RunID,
		SchoolID:    d.SchoolID,
		TriggeredBy: d.TriggeredBy,
		Status:      string(d.Status),
		StartedAt:   d.StartedAt,
		FinishedAt:  d.FinishedAt,
		SummaryJSON: summary,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainReconciliationRun converts a model run, deserializing the summary.
func ToDomainReconciliationRun(m models.ReconciliationRun) domain.ReconciliationRun {
	d := domain.ReconciliationRun{
		RunID:       m.RunID,
		SchoolID:    m.SchoolID,
		TriggeredBy: m.TriggeredBy,
		Status:      domain.ReconciliationRunStatus(m.Status),
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if len(m.SummaryJSON) > 0 {
		// A summary that fails to decode is left zeroed rather than failing the read.
		_ = json.Unmarshal(m.SummaryJSON, &d.Summary)
	}
	return d
}

// ToModelReconciliationFinding converts a domain finding, serializing details.
func ToModelReconciliationFinding(d domain.ReconciliationFinding) (models.ReconciliationFinding, error) {
	var details []byte
	if d.Details != nil {
		var err error
		details, err = json.Marshal(d.Details)
		if err != nil {
			return models.ReconciliationFinding{}, err
		}
	}
	return models.ReconciliationFinding{
		FindingID:   d.FindingID,
		RunID:       d.RunID,
		SchoolID:    d.SchoolID,
		CheckCode:   string(d.CheckCode),
		Severity:    string(d.Severity),
		EntityType:  d.EntityType,
		EntityID:    d.EntityID,
		Message:     d.Message,
		DetailsJSON: details,
		CreatedAt:   d.CreatedAt,
	}, nil
}

// ToDomainReconciliationFinding converts a model finding, deserializing details.
func ToDomainReconciliationFinding(m models.ReconciliationFinding) domain.ReconciliationFinding {
	d := domain.ReconciliationFinding{
		FindingID:  m.FindingID,
		RunID:      m.RunID,
		SchoolID:   m.SchoolID,
		CheckCode:  domain.CheckCode(m.CheckCode),
		Severity:   domain.FindingSeverity(m.Severity),
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Message:    m.Message,
		CreatedAt:  m.CreatedAt,
	}
	if len(m.DetailsJSON) > 0 {
		_ = json.Unmarshal(m.DetailsJSON, &d.Details)
	}
	return d
}
