package jobs

import (
	"encoding/json"
	"fmt"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobWelcomeEmail:
		_, ok := payload.(WelcomeEmailPayload)

		if !ok {
			_, ok2 := payload.(*WelcomeEmailPayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case JobWelcomeEmail:
		var p WelcomeEmailPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// Encode serializes a whole job for the queue.
func Encode(j Job) ([]byte, error) {
	return json.Marshal(j)
}

// Decode deserializes a queued job.
func Decode(raw []byte) (Job, error) {
	var j Job

	if err := json.Unmarshal(raw, &j); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	if !j.Type.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return j, nil
}
