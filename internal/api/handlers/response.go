package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lasierra/table-reservations/internal/domain"
)

const maxBodyBytes = 1 << 20

const msgInternalError = "internal server error"

// ErrorResponse error payload returned to clients
type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// RespondJSON writes data as JSON with the given status code.
// A nil data writes only the status.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an error payload
func RespondError(w http.ResponseWriter, status int, kind, message string) {
	RespondJSON(w, status, ErrorResponse{Message: message, Kind: kind})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, domain.KindValidation, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, domain.KindNotFound, message)
}

func RespondConflict(w http.ResponseWriter, kind, message string) {
	RespondError(w, http.StatusConflict, kind, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, domain.KindStorage, msgInternalError)
}

// StatusFor maps an error of the domain taxonomy onto an HTTP status
func StatusFor(err error) int {
	switch domain.ErrorKind(err) {
	case domain.KindValidation, domain.KindPastTime:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindSlotUnavailable, domain.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError writes err with the status and kind of its taxonomy class.
// Storage failures never leak their message.
func RespondDomainError(w http.ResponseWriter, err error, message string) {
	kind := domain.ErrorKind(err)
	if kind == domain.KindStorage {
		RespondInternalError(w)
		return
	}
	RespondError(w, StatusFor(err), kind, message)
}

// Reason returns the innermost message of a validation error, without the
// package prefixes stacked in front of it, or "" for other errors
func Reason(err error) string {
	if err == nil || !errors.Is(err, domain.ErrValidation) {
		return ""
	}
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return ""
}

// DecodeJSON decodes the request body into v, rejecting unknown fields and trailing data
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
