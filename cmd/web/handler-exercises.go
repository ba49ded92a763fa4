package main

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/myrjola/fitplanner/internal/workout"
)

//nolint:gochecknoglobals // read-only enumeration.
var categories = []workout.Category{
	workout.CategoryCompound,
	workout.CategoryIsolation,
	workout.CategoryCardio,
	workout.CategoryMobility,
}

// splitList reads a query parameter that may be repeated or comma separated.
func splitList(values []string) []string {
	var list []string
	for _, v := range values {
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

// exercisesGET searches the catalog by category, focus keywords, body part, equipment and limitations.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := workout.ExerciseQuery{
		Category:           workout.Category(query.Get("category")),
		BodyPart:           query.Get("body_part"),
		Keywords:           splitList(query["focus"]),
		Equipment:          splitList(query["equipment"]),
		ExcludeLimitations: splitList(query["exclude"]),
	}
	if q.Category != "" && !slices.Contains(categories, q.Category) {
		app.handleServiceError(w, r, &workout.ValidationError{Fields: []string{"category"}})
		return
	}
	exercises, err := app.workoutService.QueryExercises(r.Context(), q)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if exercises == nil {
		exercises = []workout.Exercise{}
	}
	app.writeJSON(w, r, http.StatusOK, exercises)
}

func (app *application) exerciseGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIntParam(w, r, "id")
	if !ok {
		return
	}
	exercise, err := app.workoutService.GetExercise(r.Context(), int(id))
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, exercise)
}

// exerciseAnalysisGET analyses the progress on an exercise. The optional days parameter overrides the window.
func (app *application) exerciseAnalysisGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIntParam(w, r, "id")
	if !ok {
		return
	}
	var days int
	if raw := r.URL.Query().Get("days"); raw != "" {
		var err error
		if days, err = strconv.Atoi(raw); err != nil || days < 1 {
			app.handleServiceError(w, r, &workout.ValidationError{Fields: []string{"days"}})
			return
		}
	}
	analysis, err := app.workoutService.AnalyzeExercise(r.Context(), int(id), days)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

func (app *application) exerciseNextGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIntParam(w, r, "id")
	if !ok {
		return
	}
	next, err := app.workoutService.NextSession(r.Context(), int(id))
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, next)
}
