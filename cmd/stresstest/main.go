package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/fitplanner/internal/e2etest"
	"github.com/myrjola/fitplanner/internal/logging"
	"github.com/myrjola/fitplanner/internal/testhelpers"
	"github.com/myrjola/fitplanner/internal/workout"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout         = 30 * time.Second
	maxConcurrentOperations = 20
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	expectedArgsCount       = 3
	baseWeight              = 20.0
)

type results struct {
	succeeded atomic.Int64
	failed    atomic.Int64
}

func (r *results) record(err error) {
	if err != nil {
		r.failed.Add(1)
		return
	}
	r.succeeded.Add(1)
}

func (r *results) successRate() float64 {
	total := r.succeeded.Load() + r.failed.Load()
	if total == 0 {
		return 0
	}
	return float64(r.succeeded.Load()) / float64(total) * percentageMultiplier
}

//nolint:gochecknoglobals // read-only scenario inputs.
var goals = []workout.Goal{
	workout.GoalBodyBuilding,
	workout.GoalWeightLoss,
	workout.GoalSportsAndAthletics,
	workout.GoalBodyWeightFitness,
	workout.GoalMobilityExclusive,
}

// runScenario creates a plan, fetches today's recommendation, logs the first suggested exercise and reads the
// resulting analysis.
func runScenario(ctx context.Context, client *e2etest.Client, i int) error {
	ctx, cancel := context.WithTimeout(ctx, scenarioTimeout)
	defer cancel()

	prefs := workout.Preferences{
		Name:            fmt.Sprintf("Stress plan %d", i),
		Goal:            goals[i%len(goals)],
		DurationWeeks:   4 + i%9, //nolint:mnd // 4-12 weeks.
		WorkoutsPerWeek: 7,       //nolint:mnd // every day is scheduled.
		Level:           workout.LevelIntermediate,
		Equipment:       []string{"Barbell", "Dumbbell", "Cable", "Machine"},
		Limitations:     []string{"None"},
	}
	var plan workout.Plan
	if err := client.PostJSON(ctx, "/api/plans", prefs, http.StatusCreated, &plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	var suggestion workout.Suggestion
	if err := client.GetJSON(ctx, "/api/today?plan="+plan.ID.String(), &suggestion); err != nil {
		return fmt.Errorf("recommend workout: %w", err)
	}
	if len(suggestion.Workouts) == 0 {
		return nil
	}
	a := suggestion.Workouts[0]
	body := map[string]any{"sets": a.Sets, "reps": a.Reps.Min, "weight": baseWeight + float64(i%10)}
	if err := client.PostJSON(ctx, fmt.Sprintf("/api/assignments/%d/logs", a.ID), body, http.StatusCreated,
		nil); err != nil {
		return fmt.Errorf("log workout: %w", err)
	}
	var analysis workout.Analysis
	if err := client.GetJSON(ctx, fmt.Sprintf("/api/exercises/%d/analysis", a.Exercise.ID), &analysis); err != nil {
		return fmt.Errorf("analyze exercise: %w", err)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname> <scenarios>")
		os.Exit(1)
	}
	hostname := os.Args[1]
	scenarios, err := strconv.Atoi(os.Args[2])
	if err != nil || scenarios < 1 {
		logger.LogAttrs(ctx, slog.LevelError, "scenarios must be a positive integer")
		os.Exit(1)
	}
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	var (
		res   results
		start = time.Now()
		g     errgroup.Group
	)
	g.SetLimit(maxConcurrentOperations)
	for i := range scenarios {
		g.Go(func() error {
			scenarioErr := runScenario(ctx, client, i)
			if scenarioErr != nil {
				logger.LogAttrs(ctx, slog.LevelWarn, "scenario failed",
					slog.Int("scenario", i), slog.Any("error", scenarioErr))
			}
			res.record(scenarioErr)
			return nil
		})
	}
	_ = g.Wait()

	rate := res.successRate()
	logger.LogAttrs(ctx, slog.LevelInfo, "stress test finished",
		slog.Int64("succeeded", res.succeeded.Load()),
		slog.Int64("failed", res.failed.Load()),
		slog.Float64("success_rate", rate),
		slog.Duration("duration", time.Since(start)))
	if rate < successRateThreshold {
		os.Exit(1)
	}
}
