package jobs

import (
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobWelcomeEmail JobType = "welcome_email"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobWelcomeEmail:
		return true
	}
	return false
}

// Job is the unit of asynchronous work carried on the redis queue.
type Job struct {
	ID          string    `json:"id"`
	Type        JobType   `json:"type"`
	Payload     []byte    `json:"payload"` // raw json
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
}

func NewJob(t JobType, payloadJSON []byte) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return Job{
		ID:          uuid.NewString(),
		Type:        t,
		Payload:     payloadJSON,
		Attempts:    0,
		MaxAttempts: 5,
		EnqueuedAt:  time.Now().UTC(),
	}, nil
}
