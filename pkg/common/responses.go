package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	pkgerrors "famorg/pkg/errors"
	"famorg/pkg/utils"
)

// DefaultMaxBodyBytes bounds ordinary JSON request bodies
const DefaultMaxBodyBytes int64 = 1 << 20

// RespondJSON sends data as the JSON response body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondNoContent sends an empty 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ParseJSONBody decodes a JSON request body with a size limit and runs the
// struct's validate tags. Failures come back as validation errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return decodeError(err)
	}

	if err := utils.ValidateStruct(v); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

// ReadBody reads a raw request body with a size limit
func ReadBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return nil, decodeError(err)
	}
	return data, nil
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.NewValidationError("request body too large").WithCode("BODY_TOO_LARGE")
	}
	// Domain errors raised while decoding (e.g. an unsafe path) keep their type
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr
	}
	return pkgerrors.NewValidationError("invalid request body: " + err.Error())
}

// QueryParam returns a required query parameter
func QueryParam(r *http.Request, name string) (string, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return "", pkgerrors.NewValidationError(name + " is required")
	}
	return value, nil
}
