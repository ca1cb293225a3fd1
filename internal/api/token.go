package api

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore хранит bearer-токен пользователя для исходящих запросов.
type TokenStore interface {
	Token() string
	Clear()
}

// MemoryTokens хранит токен в памяти и безопасно для конкурентного доступа.
type MemoryTokens struct {
	mu    sync.Mutex
	token string
	now   func() time.Time
}

// NewMemoryTokens создаёт хранилище с начальным токеном. Пустой токен означает анонимные запросы.
func NewMemoryTokens(token string) *MemoryTokens {
	return &MemoryTokens{token: normalizeToken(token), now: time.Now}
}

// Token возвращает токен или пустую строку, если токена нет или срок JWT истёк.
func (m *MemoryTokens) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return ""
	}
	if expired(m.token, m.now()) {
		m.token = ""
	}
	return m.token
}

// Clear удаляет токен.
func (m *MemoryTokens) Clear() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	switch token {
	case "undefined", "null":
		return ""
	}
	return token
}

// expired проверяет claim exp без проверки подписи.
// Непрозрачные (не JWT) токены считаются действительными.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
