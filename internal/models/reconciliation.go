package models

import "time"

// ReconciliationRun is the persisted form of one audit pass.
type ReconciliationRun struct {
	RunID       string     `json:"runID"`
	SchoolID    string     `json:"schoolID"`
	TriggeredBy string     `json:"triggeredBy,omitempty"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	SummaryJSON []byte     `json:"-"` // serialized domain.RunSummary
	AuditFields
}

// ReconciliationFinding is the persisted form of one detected inconsistency.
type ReconciliationFinding struct {
	FindingID   string    `json:"findingID"`
	RunID       string    `json:"runID"`
	SchoolID    string    `json:"schoolID"`
	CheckCode   string    `json:"checkCode"`
	Severity    string    `json:"severity"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityID"`
	Message     string    `json:"message"`
	DetailsJSON []byte    `json:"-"` // serialized details map
	CreatedAt   time.Time `json:"createdAt"`
}
