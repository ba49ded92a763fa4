package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(noCache(app.crossOriginProtection(
				app.timeout(next))))))
		}
		api = func(h http.HandlerFunc) http.Handler {
			return shared(app.actAsUser(h))
		}
	)

	mux.Handle("GET /api/healthy", shared(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", shared(http.HandlerFunc(app.testTimeout)))

	mux.Handle("GET /api/exercises", api(app.exercisesGET))
	mux.Handle("GET /api/exercises/{id}", api(app.exerciseGET))
	mux.Handle("GET /api/exercises/{id}/analysis", api(app.exerciseAnalysisGET))
	mux.Handle("GET /api/exercises/{id}/next", api(app.exerciseNextGET))

	mux.Handle("POST /api/plans", api(app.plansPOST))
	mux.Handle("GET /api/plans", api(app.plansGET))
	mux.Handle("GET /api/plans/{id}", api(app.planGET))
	mux.Handle("GET /api/plans/{id}/summary", api(app.planSummaryGET))
	mux.Handle("GET /api/plans/{id}/export", api(app.planExportGET))
	mux.Handle("GET /api/plans/{id}/report", api(app.planReportGET))
	mux.Handle("POST /api/plans/{id}/active", api(app.planActivePOST))
	mux.Handle("POST /api/plans/{id}/goal", api(app.planGoalPOST))

	mux.Handle("GET /api/today", api(app.todayGET))
	mux.Handle("POST /api/assignments/{id}/logs", api(app.assignmentLogsPOST))

	// Method bound so that known paths with another method still answer 405.
	mux.Handle("GET /", shared(http.HandlerFunc(app.notFound)))

	return mux
}
