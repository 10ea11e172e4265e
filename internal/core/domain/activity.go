package domain

import "time"

// ActivityAction names a change recorded in a case's activity trail.
type ActivityAction string

const (
	ActionCaseCreated     ActivityAction = "case.created"
	ActionCaseUpdated     ActivityAction = "case.updated"
	ActionCaseDeleted     ActivityAction = "case.deleted"
	ActionNoteCreated     ActivityAction = "note.created"
	ActionNoteUpdated     ActivityAction = "note.updated"
	ActionNoteDeleted     ActivityAction = "note.deleted"
	ActionDocumentAdded   ActivityAction = "document.added"
	ActionDocumentUpdated ActivityAction = "document.updated"
	ActionDocumentRemoved ActivityAction = "document.removed"
)

// ActivityEvent is an append-only record of something that happened to a case.
type ActivityEvent struct {
	CaseID     int64             `json:"caseId"`
	CaseNumber string            `json:"caseNumber"`
	ActorID    int64             `json:"actorId"`
	ActorRole  Role              `json:"actorRole"`
	Action     ActivityAction    `json:"action"`
	OccurredAt time.Time         `json:"occurredAt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
