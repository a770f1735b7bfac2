// Package httpjson carries the JSON request/response conventions shared by
// every handler: strict decoding, enveloped errors, and pagination metadata.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

// maxBodyBytes caps request bodies. Telemetry batches are the largest
// payloads and stay comfortably under this.
const maxBodyBytes = 4 << 20

// ErrorBody is the error envelope returned on every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Page is the envelope for list responses.
type Page struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Decode reads the request body as JSON into dst. Unknown fields are
// rejected so client typos fail loudly instead of silently dropping data.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// Write sends v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// Error sends an error envelope. Internal errors are logged with detail and
// answered with a generic message; client errors echo the message.
func Error(w http.ResponseWriter, status int, err error) {
	msg := "internal server error"
	if status < http.StatusInternalServerError {
		msg = err.Error()
	} else {
		log.Printf("http %d: %v", status, err)
	}
	Write(w, status, ErrorBody{Error: msg})
}

// ErrBadQuery marks an unparseable query parameter.
var ErrBadQuery = errors.New("bad query parameter")

// Pagination reads skip and limit query parameters, clamping limit to
// [1, max] with the given default. Negative skip is rejected.
func Pagination(r *http.Request, def, max int) (skip, limit int, err error) {
	skip, err = intQuery(r, "skip", 0)
	if err != nil || skip < 0 {
		return 0, 0, fmt.Errorf("%w: skip", ErrBadQuery)
	}
	limit, err = intQuery(r, "limit", def)
	if err != nil || limit < 1 {
		return 0, 0, fmt.Errorf("%w: limit", ErrBadQuery)
	}
	if limit > max {
		limit = max
	}
	return skip, limit, nil
}

// PathID reads a positive integer path value (Go 1.22 pattern wildcard).
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s", ErrBadQuery, name)
	}
	return id, nil
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
