package transport

import (
	"encoding/json"
	"errors"
	"net/http"
)

const (
	codeInvalidRange = "INVALID_RANGE"
	codeInvalidInput = "INVALID_INPUT"
	codeNotFound     = "NOT_FOUND"
	codeForbidden    = "FORBIDDEN"
	codeLocked       = "LOCKED"
	codeUnauthorized = "UNAUTHORIZED"
	codeUnknownTool  = "UNKNOWN_TOOL"
	codeInternal     = "INTERNAL"
)

// codedError is implemented by errors that carry a stable API code.
type codedError interface {
	error
	CodeValue() string
	MessageValue() string
}

type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an API code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case codeInvalidRange, codeInvalidInput:
		return http.StatusBadRequest
	case codeNotFound, codeUnknownTool:
		return http.StatusNotFound
	case codeForbidden:
		return http.StatusForbidden
	case codeLocked:
		return http.StatusConflict
	case codeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// classify returns the status, code and client-safe message for err.
// Errors without a code become a generic 500.
func classify(err error) (int, string, string) {
	var coded codedError
	if errors.As(err, &coded) {
		status := statusFor(coded.CodeValue())
		if status != http.StatusInternalServerError {
			return status, coded.CodeValue(), coded.MessageValue()
		}
	}
	return http.StatusInternalServerError, codeInternal, "internal error"
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Data: data})
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, envelope{Error: &apiError{Code: code, Message: message}})
}

func writeEnvelope(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
