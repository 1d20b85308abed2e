package models

// Student is the persisted form of an enrolled student. Enrollment is
// managed upstream; billing only reads these rows.
type Student struct {
	StudentID  string `json:"studentID"`
	SchoolID   string `json:"schoolID"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ExternalID string `json:"externalID,omitempty"`
	AuditFields
}
