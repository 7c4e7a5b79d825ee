// Package httpx holds the JSON plumbing shared by the façade handlers:
// response encoding, strict request decoding, and the error envelope that
// keeps internal failure detail out of client responses.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"toroauth"
)

// DefaultMaxBody bounds request bodies decoded by the façades.
const DefaultMaxBody = 1 << 20

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope for err using the taxonomy mapping.
// Only the sentinel code and message reach the client; callers log the full
// error chain server-side before calling this.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, toroauth.HTTPStatus(err), errorResponse{Error: apiError{
		Code:    toroauth.ErrorCode(err),
		Message: toroauth.ErrorMessage(err),
	}})
}

// DecodeJSON decodes a single JSON value from the request body into dst,
// rejecting unknown fields, oversized bodies, and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure there is no extra data after the first JSON value.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
