// Package shared holds the response envelope helpers every handler uses, so
// success and error payloads look identical across features.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
)

// Envelope is the uniform response body. Success responses carry Data and
// optionally Pagination; error responses carry Error and Message.
type Envelope struct {
	Success    bool             `json:"success"`
	Data       any              `json:"data,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
	Error      string           `json:"error,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// WriteList writes a success envelope with pagination metadata.
func WriteList(w http.ResponseWriter, data any, meta pagination.Meta) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &meta})
}

// WriteError maps a coded domain error onto its HTTP status. Uncoded errors
// collapse to 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := dErrors.MessageOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		message = "internal error"
	}
	write(w, dErrors.ToHTTPStatus(code), Envelope{
		Success: false,
		Error:   string(code),
		Message: message,
	})
}

// Decode parses a JSON request body into dst, translating failures into a
// BadRequest domain error.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
