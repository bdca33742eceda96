package config

import (
	"strings"
)

// maskSecret маскирует секрет, оставляя не больше четверти символов:
// до 4 в начале и до 4 в конце
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	// Если секрет слишком короткий, маскируем полностью
	if len(secret) < 16 {
		return "***"
	}

	visible := min(len(secret)/8, 4)
	prefix := secret[:visible]
	suffix := secret[len(secret)-visible:]
	masked := strings.Repeat("*", len(secret)-2*visible)

	return prefix + masked + suffix
}

// MaskedHeaders возвращает копию статических заголовков с замаскированными значениями
func (p ProviderConfig) MaskedHeaders() map[string]string {
	out := make(map[string]string, len(p.Headers))
	for name, value := range p.Headers {
		out[name] = maskSecret(value)
	}
	return out
}

// formatValidationError форматирует ошибку валидации с маскированным значением
func formatValidationError(field, message string, secret string) error {
	maskedSecret := ""
	if secret != "" {
		maskedSecret = maskSecret(secret)
	}

	var errorMsg string
	if maskedSecret != "" {
		errorMsg = field + ": " + message + " (value: " + maskedSecret + ")"
	} else {
		errorMsg = field + ": " + message
	}

	return &ValidationError{Field: field, Message: errorMsg}
}

// ValidationError представляет ошибку валидации с дополнительной информацией
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
