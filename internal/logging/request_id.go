package logging

import "github.com/google/uuid"

// GenerateRequestID returns a time-ordered unique identifier used to tag
// a connection's log entries.
func GenerateRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
