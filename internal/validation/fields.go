// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode/utf8"
)

const (
	cardNumberLength  = 16
	expiryPartLength  = 2
	maxCodeLength     = 6
	minPassportLookup = 6
)

// IsDigits проверяет, что строка состоит ровно из n цифр ASCII.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsCardNumber проверяет номер карты только по длине и составу: 16 цифр.
// Контрольная сумма не проверяется.
func IsCardNumber(number string) bool {
	return IsDigits(number, cardNumberLength)
}

// IsExpiryPart проверяет месяц или год срока действия карты: две цифры.
func IsExpiryPart(part string) bool {
	return IsDigits(part, expiryPartLength)
}

// IsConfirmationCode проверяет код подтверждения: от 1 до 6 символов без пробелов.
func IsConfirmationCode(code string) bool {
	n := utf8.RuneCountInString(code)
	return n > 0 && n <= maxCodeLength && !strings.ContainsAny(code, " \t\n")
}

// IsPresent проверяет, что строка непустая после обрезки пробелов.
func IsPresent(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsLookupPassport проверяет, что номер паспорта достаточно длинный для запроса в реестр.
func IsLookupPassport(passport string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(passport)) >= minPassportLookup
}
