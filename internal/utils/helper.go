package utils

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"foodorder-be/internal/logger"

	"go.uber.org/zap"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s-]{6,18}$`)

// ValidPhone reports whether s looks like a dialable phone number.
func ValidPhone(s string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(s))
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

// WriteMessage writes the short human-readable body every mutating endpoint returns.
func WriteMessage(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, map[string]string{"message": message})
}
