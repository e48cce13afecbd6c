package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job represents a unit of asynchronous work carried on a durable queue.
// Jobs are serialized as JSON onto Redis lists; a job lives in exactly one
// of the pending list, the processing set, or the dead-letter list.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"createdAt"`

	// Set when the job is moved to the dead-letter list
	FailedAt *time.Time `json:"failedAt,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// NewJob creates a job of the given type with a JSON-encoded payload
func NewJob(jobType string, payload interface{}) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   data,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Encode serializes the job for the queue
func (j *Job) Encode() (string, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeJob parses a job from its queue representation
func DecodeJob(raw string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
