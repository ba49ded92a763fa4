package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/fitplanner/internal/logging"
	"github.com/myrjola/fitplanner/internal/workout"
)

// plansPOST generates and stores a plan from the posted preferences.
func (app *application) plansPOST(w http.ResponseWriter, r *http.Request) {
	var prefs workout.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		app.badRequest(w, r, err)
		return
	}
	plan, err := app.workoutService.CreatePlan(r.Context(), prefs)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/plans/"+plan.ID.String())
	app.writeJSON(w, r, http.StatusCreated, plan)
}

func (app *application) plansGET(w http.ResponseWriter, r *http.Request) {
	plans, err := app.workoutService.ActivePlans(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if plans == nil {
		plans = []workout.Plan{}
	}
	app.writeJSON(w, r, http.StatusOK, plans)
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parsePlanIDParam(w, r)
	if !ok {
		return
	}
	plan, err := app.workoutService.GetPlan(r.Context(), id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) planSummaryGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parsePlanIDParam(w, r)
	if !ok {
		return
	}
	summaries, err := app.workoutService.PlanSummary(r.Context(), id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []workout.WeekSummary{}
	}
	app.writeJSON(w, r, http.StatusOK, summaries)
}

// planExportGET serves a printable HTML rendition of the plan.
func (app *application) planExportGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parsePlanIDParam(w, r)
	if !ok {
		return
	}
	html, err := app.workoutService.ExportPlanHTML(r.Context(), id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (app *application) planReportGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parsePlanIDParam(w, r)
	if !ok {
		return
	}
	ctx := logging.WithAttrs(r.Context(), slog.String("plan_id", id.String()))
	report, err := app.workoutService.PlanReport(ctx, id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, report)
}

type planActiveRequest struct {
	Active *bool `json:"active"`
}

func (app *application) planActivePOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parsePlanIDParam(w, r)
	if !ok {
		return
	}
	var req planActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if req.Active == nil {
		app.handleServiceError(w, r, &workout.ValidationError{Fields: []string{"active"}})
		return
	}
	if err := app.workoutService.SetPlanActive(r.Context(), id, *req.Active); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type planGoalRequest struct {
	Goal workout.Goal `json:"goal"`
}

func (app *application) planGoalPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parsePlanIDParam(w, r)
	if !ok {
		return
	}
	var req planGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if err := app.workoutService.UpdatePlanGoal(r.Context(), id, req.Goal); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
