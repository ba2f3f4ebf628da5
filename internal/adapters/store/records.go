package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/email-verifier/internal/core"
)

// resultDocument is the serialized form of a result record
type resultDocument struct {
	RunID          string       `json:"run_id"`
	Email          string       `json:"email"`
	Classification string       `json:"is_reachable,omitempty"`
	Payload        core.Payload `json:"result,omitempty"`
	Error          string       `json:"error,omitempty"`
	Attempts       int          `json:"attempts"`
	CompletedAt    time.Time    `json:"completed_at"`
}

// summaryDocument is the serialized form of a summary record
type summaryDocument struct {
	RunID           string         `json:"run_id"`
	Total           int            `json:"total"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Classifications map[string]int `json:"classifications"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	DurationMS      int64          `json:"duration_ms"`
}

func newResultDocument(r *core.ResultRecord) resultDocument {
	return resultDocument{
		RunID:          r.RunID,
		Email:          r.Email,
		Classification: r.Classification,
		Payload:        r.Payload,
		Error:          r.Error,
		Attempts:       r.Attempts,
		CompletedAt:    r.CompletedAt.UTC(),
	}
}

func (d resultDocument) record() *core.ResultRecord {
	return &core.ResultRecord{
		RunID:          d.RunID,
		Email:          d.Email,
		Classification: d.Classification,
		Payload:        d.Payload,
		Error:          d.Error,
		Attempts:       d.Attempts,
		CompletedAt:    d.CompletedAt,
	}
}

func newSummaryDocument(s *core.SummaryRecord) summaryDocument {
	return summaryDocument{
		RunID:           s.RunID,
		Total:           s.Total,
		Successful:      s.Successful,
		Failed:          s.Failed,
		Classifications: s.Classifications,
		StartedAt:       s.StartedAt.UTC(),
		FinishedAt:      s.FinishedAt.UTC(),
		DurationMS:      s.Duration().Milliseconds(),
	}
}

func (d summaryDocument) record() *core.SummaryRecord {
	return &core.SummaryRecord{
		RunID: d.RunID,
		RunSummary: core.RunSummary{
			Total:           d.Total,
			Successful:      d.Successful,
			Failed:          d.Failed,
			Classifications: d.Classifications,
		},
		StartedAt:  d.StartedAt,
		FinishedAt: d.FinishedAt,
	}
}

// resultColumns returns the nullable column values shared by the SQL stores
func resultColumns(r *core.ResultRecord) (classification, payload, errMsg sql.NullString, err error) {
	if r.Classification != "" {
		classification = sql.NullString{String: r.Classification, Valid: true}
	}
	if r.Error != "" {
		errMsg = sql.NullString{String: r.Error, Valid: true}
	}
	if r.Payload != nil {
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return classification, payload, errMsg, fmt.Errorf("failed to encode payload: %w", err)
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}
	return classification, payload, errMsg, nil
}

// classificationsColumn encodes the per-classification counts for the SQL stores
func classificationsColumn(s *core.SummaryRecord) (string, error) {
	counts := s.Classifications
	if counts == nil {
		counts = map[string]int{}
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return "", fmt.Errorf("failed to encode classifications: %w", err)
	}
	return string(data), nil
}
