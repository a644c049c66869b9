package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the machine-readable part of an admin API error. Each code
// maps to exactly one HTTP status.
type ErrorCode string

const (
	CodeUnauthorized   ErrorCode = "unauthorized"
	CodeBadMatchID     ErrorCode = "bad_match_id"
	CodeMatchNotFound  ErrorCode = "match_not_found"
	CodeGameLoopDown   ErrorCode = "game_loop_unavailable"
	CodeArchiveFailure ErrorCode = "archive_failure"
)

var errorStatus = map[ErrorCode]int{
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeBadMatchID:     http.StatusBadRequest,
	CodeMatchNotFound:  http.StatusNotFound,
	CodeGameLoopDown:   http.StatusServiceUnavailable,
	CodeArchiveFailure: http.StatusInternalServerError,
}

// Status reports the HTTP status for c; unknown codes are server errors.
func (c ErrorCode) Status() int {
	if s, ok := errorStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Retry is set when the same request may succeed later.
	Retry bool `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code ErrorCode, msg string) {
	resp := ErrorResponse{Code: code, Message: msg}
	if code.Status() == http.StatusServiceUnavailable {
		resp.Retry = true
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, code.Status(), resp)
}
