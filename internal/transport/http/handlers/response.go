package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/vedran77/taskmanager/pkg/validator"
)

const maxJSONBody = 1 << 20

var (
	errInvalidJSON    = errors.New("invalid request body")
	errInvalidUpdates = errors.New("invalid updates")
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// decodeUpdate decodes a PATCH body into dst after checking that every key
// is in allowed. A single unknown key rejects the whole body.
func decodeUpdate(r *http.Request, allowed []string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return errInvalidJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return errInvalidJSON
	}
	for key := range fields {
		if !slices.Contains(allowed, key) {
			return errInvalidUpdates
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// writeDecodeError reports a decodeJSON or decodeUpdate failure.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidUpdates) {
		writeError(w, http.StatusBadRequest, "INVALID_UPDATES", "Invalid updates")
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}
