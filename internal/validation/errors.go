package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors накапливает ошибки валидации по полям.
type Errors struct {
	fields map[string]string
}

// NewErrors создаёт пустой набор ошибок.
func NewErrors() *Errors {
	return &Errors{fields: make(map[string]string)}
}

// Add добавляет ошибку для поля. Повторная ошибка для того же поля игнорируется.
func (e *Errors) Add(field, message string) {
	if _, ok := e.fields[field]; ok {
		return
	}
	e.fields[field] = message
}

// Empty сообщает, что ошибок нет.
func (e *Errors) Empty() bool {
	return e == nil || len(e.fields) == 0
}

// Fields возвращает копию ошибок по полям.
func (e *Errors) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// Err возвращает nil, если ошибок нет.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsErrors извлекает набор ошибок валидации из цепочки.
func AsErrors(err error) (*Errors, bool) {
	var ve *Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
