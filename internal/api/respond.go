package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kalambet/promptlift/internal/apperr"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

// writeError renders err as {"success": false, "error", "type"} with the
// status of its kind. Internal causes are logged, never sent.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "kind", kind, "error", err)
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   apperr.Message(err),
		"type":    kind,
	})
}

func httpError(w http.ResponseWriter, kind apperr.Kind, format string, args ...any) {
	writeError(w, apperr.New(kind, format, args...))
}

// decodeBody reads a JSON request body into v. Unknown fields are rejected
// so legacy flat payloads fail loudly instead of being half-read.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.New(apperr.InvalidInput, "request body is required")
		case errors.As(err, &maxErr):
			return apperr.New(apperr.InvalidInput, "request body exceeds %d bytes", maxErr.Limit)
		default:
			return apperr.Wrap(apperr.InvalidInput, err, "invalid request body: %s", cleanDecodeError(err))
		}
	}
	return nil
}

func cleanDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)
	}
	return err.Error()
}
