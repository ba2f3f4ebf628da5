package core

import (
	"time"
)

// ClassificationField is the payload key the backend uses for the reachability verdict
const ClassificationField = "is_reachable"

// ProxyDescriptor describes an upstream SOCKS proxy the backend should use for SMTP
type ProxyDescriptor struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// RequestDefaults holds request parameters shared by every item of a run
type RequestDefaults struct {
	FromEmail string
	HelloName string
	Proxy     *ProxyDescriptor
}

// WorkItem is one email address queued for verification
type WorkItem struct {
	// Email is the trimmed input string, used as the item identifier
	Email string
	// Address is the normalized address sent to the backend
	Address   string
	FromEmail string
	HelloName string
	Proxy     *ProxyDescriptor
}

// Payload is the decoded verification response. The backend may add fields at any
// time, so it is kept as a loose map.
type Payload map[string]any

// Classification returns the reachability verdict, if the backend supplied one
func (p Payload) Classification() (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[ClassificationField].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ItemResult is the terminal outcome for a WorkItem
type ItemResult struct {
	Item     WorkItem
	Payload  Payload
	Err      error
	Attempts int
}

// Succeeded reports whether the item produced a payload
func (r ItemResult) Succeeded() bool {
	return r.Err == nil
}

// RunSummary holds aggregate counts for a run
type RunSummary struct {
	Total           int            `json:"total"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Classifications map[string]int `json:"classifications"`
}

// ResultRecord is what gets written to the result sink for each completed item
type ResultRecord struct {
	RunID          string
	Email          string
	Classification string
	Payload        Payload
	Error          string
	Attempts       int
	CompletedAt    time.Time
}

// SummaryRecord is what gets written to the summary sink at the end of a run
type SummaryRecord struct {
	RunID string
	RunSummary
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall-clock length of the run
func (s *SummaryRecord) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// RunConfig is the fully-resolved configuration the core runs with
type RunConfig struct {
	Concurrency    int
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	Health         GateConfig
}

// GateConfig configures the availability gate
type GateConfig struct {
	Enabled      bool
	MaxProbes    int
	Interval     time.Duration
	ProbeTimeout time.Duration
}

// NewResultRecord converts an ItemResult into a sink record
func NewResultRecord(runID string, r ItemResult, completedAt time.Time) *ResultRecord {
	rec := &ResultRecord{
		RunID:       runID,
		Email:       r.Item.Email,
		Attempts:    r.Attempts,
		CompletedAt: completedAt,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		return rec
	}
	rec.Payload = r.Payload
	if c, ok := r.Payload.Classification(); ok {
		rec.Classification = c
	}
	return rec
}
