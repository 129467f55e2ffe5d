package postman

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrRemoteUnavailable matches failures where the service could not be
	// reached, timed out, or (for listing) answered with a non-2xx status.
	ErrRemoteUnavailable = errors.New("postman API unavailable")

	// ErrRemoteRejected matches non-2xx answers to create and delete.
	ErrRemoteRejected = errors.New("postman API rejected request")
)

// UnavailableError reports that an operation could not obtain a usable
// answer from the service.
type UnavailableError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *UnavailableError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + ErrRemoteUnavailable.Error()
	}
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrRemoteUnavailable }

// RejectedError reports a non-2xx answer.
type RejectedError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRemoteRejected }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.StatusCode
	}
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.StatusCode
	}
	return 0
}

// Message returns the service-provided message carried by err, or "".
func Message(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Message
	}
	return ""
}

const maxMessageLen = 512

// errorMessage extracts a readable message from an error response body.
// Postman answers {"error": {"name": ..., "message": ...}}; plain
// {"error": "..."} and {"message": "..."} bodies are accepted too.
func errorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		var detail struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}

		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}

		if envelope.Message != "" {
			return envelope.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		n := maxMessageLen
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n] + "..."
	}
	return msg
}
