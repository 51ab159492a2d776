package domain

import "time"

// FeedbackSample is one user verdict on a shown finding. Samples are
// append-only calibration training data; they are never mutated or deleted
// by this subsystem.
type FeedbackSample struct {
	FindingID     string    `json:"finding_id"`
	RawConfidence float64   `json:"raw_confidence"`
	Correct       bool      `json:"correct"`
	Discipline    string    `json:"discipline,omitempty"`
	DocumentType  string    `json:"document_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type FeedbackStats struct {
	TotalSamples   int            `json:"total_samples"`
	CorrectCount   int            `json:"correct_count"`
	IncorrectCount int            `json:"incorrect_count"`
	ByDiscipline   map[string]int `json:"by_discipline,omitempty"`
}
