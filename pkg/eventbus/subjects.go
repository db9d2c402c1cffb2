package eventbus

import "fmt"

const (
	// SubjectPrefix is the canonical prefix for saga lifecycle events.
	SubjectPrefix = "sagaflow.v1.lifecycle"
)

// SagaSubject returns the canonical subject for one saga lifecycle event.
func SagaSubject(sagaID, eventType string) string {
	return fmt.Sprintf("%s.saga.%s.%s", SubjectPrefix, sanitizeSegment(sagaID), sanitizeSegment(eventType))
}

// SagaWildcardSubject returns the wildcard subject matching every event of
// one saga.
func SagaWildcardSubject(sagaID string) string {
	return fmt.Sprintf("%s.saga.%s.>", SubjectPrefix, sanitizeSegment(sagaID))
}

// AllSagasSubject returns the wildcard subject matching every saga event.
func AllSagasSubject() string {
	return fmt.Sprintf("%s.saga.>", SubjectPrefix)
}

func sanitizeSegment(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
