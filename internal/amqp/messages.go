package amqp

import (
	"encoding/json"
	"time"

	"saoke/internal/core"
)

// RunCompletedMessage announces a finished ingestion run together with
// its aggregate figures. Mean is nil for a run without records.
type RunCompletedMessage struct {
	RunID     string        `json:"run_id"`
	Source    string        `json:"source"`
	Records   int           `json:"records"`
	Total     int64         `json:"total"`
	Mean      *float64      `json:"mean"`
	Max       int64         `json:"max"`
	Min       int64         `json:"min"`
	Buckets   []core.Bucket `json:"buckets"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewRunCompletedMessage(runID, source string, s core.Summary, buckets []core.Bucket) *RunCompletedMessage {
	msg := &RunCompletedMessage{
		RunID:     runID,
		Source:    source,
		Records:   s.Count,
		Total:     s.Total,
		Max:       s.Max,
		Min:       s.Min,
		Buckets:   buckets,
		Timestamp: time.Now(),
	}
	if !s.Empty() {
		mean := s.Mean
		msg.Mean = &mean
	}
	if msg.Buckets == nil {
		msg.Buckets = []core.Bucket{}
	}
	return msg
}

func (m *RunCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
