package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsuccessful возвращается, если сервер ответил 2xx, но без ожидаемых данных.
var ErrUnsuccessful = errors.New("api request unsuccessful")

// Error описывает ответ сервера с кодом ошибки.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// ServerMessage возвращает сообщение сервера из цепочки ошибок, если оно есть.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func newError(status int, body []byte) *Error {
	return &Error{Status: status, Message: extractMessage(body)}
}

func extractMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	for _, key := range []string{"message", "error", "detail"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}

	return ""
}
