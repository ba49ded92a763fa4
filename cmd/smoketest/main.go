package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/myrjola/fitplanner/internal/e2etest"
	"github.com/myrjola/fitplanner/internal/errors"
	"github.com/myrjola/fitplanner/internal/logging"
	"github.com/myrjola/fitplanner/internal/testhelpers"
	"github.com/myrjola/fitplanner/internal/workout"
)

// checkReadOnlyAPI exercises the endpoints that do not modify data.
func checkReadOnlyAPI(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var exercises []workout.Exercise
	if err := client.GetJSON(ctx, "/api/exercises?category=Compound", &exercises); err != nil {
		return fmt.Errorf("query exercises: %w", err)
	}
	if len(exercises) == 0 {
		return errors.New("exercise catalog is empty")
	}
	var plans []workout.Plan
	if err := client.GetJSON(ctx, "/api/plans", &plans); err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	var suggestion workout.Suggestion
	if err := client.GetJSON(ctx, "/api/today", &suggestion); err != nil {
		return fmt.Errorf("recommend workout: %w", err)
	}
	if suggestion.Type == "" {
		return errors.New("recommendation has no type")
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := checkReadOnlyAPI(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error checking API", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
