package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/myrjola/fitplanner/internal/workout"
)

// todayGET recommends today's training. The optional plan parameter picks the plan, otherwise the most recently
// started active plan is used.
func (app *application) todayGET(w http.ResponseWriter, r *http.Request) {
	var planID *uuid.UUID
	if raw := r.URL.Query().Get("plan"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			app.handleServiceError(w, r, &workout.ValidationError{Fields: []string{"plan"}})
			return
		}
		planID = &id
	}
	suggestion, err := app.workoutService.Today(r.Context(), planID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, suggestion)
}

type logWorkoutRequest struct {
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// assignmentLogsPOST logs a performance of a scheduled assignment for today.
func (app *application) assignmentLogsPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIntParam(w, r, "id")
	if !ok {
		return
	}
	var req logWorkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.badRequest(w, r, err)
		return
	}
	entry, err := app.workoutService.LogWorkout(r.Context(), id, req.Sets, req.Reps, req.Weight)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, entry)
}
