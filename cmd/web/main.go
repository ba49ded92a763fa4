package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/fitplanner/internal/envstruct"
	"github.com/myrjola/fitplanner/internal/errors"
	"github.com/myrjola/fitplanner/internal/flightrecorder"
	"github.com/myrjola/fitplanner/internal/logging"
	"github.com/myrjola/fitplanner/internal/sqlite"
	"github.com/myrjola/fitplanner/internal/workout"
)

type application struct {
	logger         *slog.Logger
	workoutService *workout.Service
	// userID is the profile every request acts as.
	userID         int
	requestTimeout time.Duration
	// recorder captures traces of timed out requests. Nil disables capturing.
	recorder *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"FITPLAN_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"FITPLAN_SQLITE_URL" envDefault:"./fitplanner.sqlite3"`
	// UserID is the user profile the API acts on behalf of.
	UserID int `env:"FITPLAN_USER_ID" envDefault:"1"`
	// AnalysisWindowDays is the default lookback of progress analyses.
	AnalysisWindowDays int `env:"FITPLAN_ANALYSIS_WINDOW_DAYS" envDefault:"90"`
	// RandomSeed seeds exercise selection. Zero seeds from the clock.
	RandomSeed int `env:"FITPLAN_RANDOM_SEED" envDefault:"0"`
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration `env:"FITPLAN_REQUEST_TIMEOUT" envDefault:"2s"`
	// TracesDirectory enables the flight recorder and receives traces of timed out requests.
	TracesDirectory string `env:"FITPLAN_TRACES_DIRECTORY" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if cfg.RandomSeed < 0 {
		return errors.New("random seed must not be negative", slog.Int("seed", cfg.RandomSeed))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	var recorder *flightrecorder.Recorder
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(logger, flightrecorder.Config{
			Directory: cfg.TracesDirectory,
			MinAge:    0,
			MaxBytes:  0,
			Cooldown:  0,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
	}

	app := application{
		logger: logger,
		workoutService: workout.NewService(db, logger, workout.ServiceConfig{
			Seed:       uint64(cfg.RandomSeed),
			WindowDays: cfg.AnalysisWindowDays,
			Now:        nil,
		}),
		userID:         cfg.UserID,
		requestTimeout: cfg.RequestTimeout,
		recorder:       recorder,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	// A .env file in the working directory fills in variables that are not set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1)
	}
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
