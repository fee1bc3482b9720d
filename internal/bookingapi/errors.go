package bookingapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// FallbackMessage is shown when a rejected write carries no server message.
const FallbackMessage = "예약 처리 중 오류가 발생했습니다. 다시 시도해주세요."

var (
	ErrUnauthorized = errors.New("booking service: unauthorized")
	ErrNotFound     = errors.New("booking service: not found")
	ErrConflict     = errors.New("booking service: conflict")
)

// APIError is a non-2xx response of the booking service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses to sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return nil
	}
}

// UserMessage returns the message to show for a failed write: the server's
// own message when it sent one, the generic fallback otherwise.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}
