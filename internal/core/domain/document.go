package domain

import "time"

// DocumentType classifies an uploaded supporting document.
type DocumentType string

const (
	DocumentID               DocumentType = "id"
	DocumentPassport         DocumentType = "passport"
	DocumentMedicalReport    DocumentType = "medical_report"
	DocumentBirthCertificate DocumentType = "birth_certificate"
	DocumentSchoolRecord     DocumentType = "school_record"
	DocumentProofOfAddress   DocumentType = "proof_of_address"
	DocumentOther            DocumentType = "other"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentID, DocumentPassport, DocumentMedicalReport, DocumentBirthCertificate,
		DocumentSchoolRecord, DocumentProofOfAddress, DocumentOther:
		return true
	}
	return false
}

// Document is the metadata record of a file attached to a case.
// The file bytes live outside this service; FileURL points at them.
type Document struct {
	ID           int64        `json:"id"`
	CaseID       int64        `json:"caseId"`
	DocumentType DocumentType `json:"documentType"`
	FileName     string       `json:"fileName"`
	FileURL      string       `json:"fileUrl"`
	FileSize     int64        `json:"fileSize"`
	UploadedBy   int64        `json:"uploadedBy"`
	Description  string       `json:"description"`
	UploadedAt   time.Time    `json:"uploadedAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
