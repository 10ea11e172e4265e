package domain

import "time"

// Note is a free-text entry attached to a case by a user.
type Note struct {
	ID              int64     `json:"id"`
	CaseID          int64     `json:"caseId"`
	UserID          int64     `json:"userId"`
	AuthorFirstName string    `json:"authorFirstName,omitempty"`
	AuthorLastName  string    `json:"authorLastName,omitempty"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	IsPrivate       bool      `json:"isPrivate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// EditableBy reports whether p may change or delete the note: its author or an admin.
func (n *Note) EditableBy(p Principal) bool {
	return n.UserID == p.UserID || p.IsAdmin()
}
