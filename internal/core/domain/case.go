package domain

import "time"

// CaseStatus represents the lifecycle state of a case.
type CaseStatus string

const (
	StatusOpen       CaseStatus = "open"
	StatusInProgress CaseStatus = "in_progress"
	StatusOnHold     CaseStatus = "on_hold"
	StatusClosed     CaseStatus = "closed"
	StatusResolved   CaseStatus = "resolved"
)

// Valid reports whether s is a known case status.
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusOnHold, StatusClosed, StatusResolved:
		return true
	}
	return false
}

// CasePriority ranks how urgently a case needs attention.
type CasePriority string

const (
	PriorityLow    CasePriority = "low"
	PriorityMedium CasePriority = "medium"
	PriorityHigh   CasePriority = "high"
	PriorityUrgent CasePriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p CasePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Case is the core aggregate root.
type Case struct {
	ID            int64        `json:"id"`
	CaseNumber    string       `json:"caseNumber"`
	ClientID      int64        `json:"clientId"`
	CaseManagerID int64        `json:"caseManagerId"`
	Status        CaseStatus   `json:"status"`
	Priority      CasePriority `json:"priority"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Tags          []string     `json:"tags"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// VisibleTo reports whether p may see c under the manager scoping rule.
func (c *Case) VisibleTo(p Principal) bool {
	if p.Role != RoleCaseManager {
		return true
	}
	return c.CaseManagerID == p.UserID
}

// StatusCount is one row of the per-status case statistics.
type StatusCount struct {
	Status CaseStatus `json:"status"`
	Count  int64      `json:"count"`
}
