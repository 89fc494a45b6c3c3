package llm

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required")

// RefusalError means the model declined to answer. Fatal: retrying a
// refusal just burns tokens.
type RefusalError struct {
	Message string
}

func (e *RefusalError) Error() string {
	return "model refused: " + e.Message
}

// ProtocolError means the response was unusable: unexpected status,
// non-JSON body, missing assistant output, or JSON that survived
// salvage but still failed to parse. Fatal to the call.
type ProtocolError struct {
	Status int
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm protocol error (status %d): %s", e.Status, e.Detail)
	}
	return "llm protocol error: " + e.Detail
}

// TransientError marks a retryable failure: HTTP 429, 5xx, or a
// transport error. Callers only see it once every retry is exhausted.
type TransientError struct {
	Status int // 0 for transport errors
	Detail string
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm transient error (status %d): %s", e.Status, e.Detail)
	}
	return "llm transient error: " + e.Detail
}
