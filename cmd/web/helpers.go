package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/myrjola/fitplanner/internal/contexthelpers"
	"github.com/myrjola/fitplanner/internal/errors"
	"github.com/myrjola/fitplanner/internal/workout"
)

const maxBodySize = 64 * 1024

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// writeJSON encodes data as the response body with the given status.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decodeJSON decodes a size limited request body into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("path", contexthelpers.CurrentPath(r.Context())), errors.SlogError(err))
	body, _ := json.Marshal(errorResponse{Error: http.StatusText(http.StatusInternalServerError), Fields: nil})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}

func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "bad request", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error(), Fields: nil})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound), Fields: nil})
}

// handleServiceError maps workout errors to status codes: validation failures to 422, missing entities to 404
// and everything else to 500.
func (app *application) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *workout.ValidationError
	switch {
	case errors.As(err, &validationErr):
		app.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:  validationErr.Error(),
			Fields: validationErr.Fields,
		})
	case errors.Is(err, workout.ErrNotFound):
		app.notFound(w, r)
	default:
		app.serverError(w, r, err)
	}
}

// parsePlanIDParam parses the "id" path parameter as a plan id. On failure it responds with 404.
func (app *application) parsePlanIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		app.notFound(w, r)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses an integer path parameter. On failure it responds with 404.
func (app *application) parseIntParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		app.notFound(w, r)
		return 0, false
	}
	return id, true
}
