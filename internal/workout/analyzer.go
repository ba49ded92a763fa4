package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWindowDays      = 90
	maxRating              = 5
	planReportConcurrency  = 4
	maxKeyRecommendations  = 5
	brzyckiMaxReps         = 36
	highRepsThreshold      = 15
	lowRepsThreshold       = 5
	lowConsistencyPerWeek  = 0.5
	ratingTrendPerStep     = 5
	strengthDecliningTrend = -2
	strengthGreatTrend     = 5
	volumeDroppingTrend    = -5
	volumeRisingTrend      = 10
)

// Status tells whether an analysis had data to work with.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// Metrics are the progression figures of an exercise, in percent except for Consistency.
type Metrics struct {
	StrengthChange float64 `json:"strength_change_pct"`
	VolumeChange   float64 `json:"volume_change_pct"`
	StrengthTrend  float64 `json:"strength_trend"`
	VolumeTrend    float64 `json:"volume_trend"`
	// Consistency is workout days per week over the analysis window.
	Consistency float64 `json:"consistency"`
}

// Analysis is the progress of a single exercise.
type Analysis struct {
	Status           Status    `json:"status"`
	ExerciseID       int       `json:"exercise_id"`
	HistoryDays      int       `json:"history_length_days"`
	WorkoutCount     int       `json:"workout_count"`
	CurrentOneRepMax float64   `json:"current_1rm"`
	BestOneRepMax    float64   `json:"best_1rm"`
	BestWorkoutDate  time.Time `json:"best_workout_date"`
	AverageVolume    float64   `json:"average_volume"`
	Metrics          Metrics   `json:"progression"`
	Recommendations  []string  `json:"recommendations"`
}

// ExerciseProgress pairs an exercise with its analysis in a plan report.
type ExerciseProgress struct {
	Exercise Exercise `json:"exercise"`
	Analysis Analysis `json:"analysis"`
}

// PlanReport rolls the analyses of every exercise in a plan up.
type PlanReport struct {
	Status             Status             `json:"status"`
	PlanID             uuid.UUID          `json:"plan_id"`
	PlanName           string             `json:"plan_name"`
	Goal               Goal               `json:"goal"`
	AverageStrength    float64            `json:"avg_strength_trend"`
	ExerciseCount      int                `json:"exercise_count"`
	StartDate          time.Time          `json:"start_date"`
	DaysActive         int                `json:"days_active"`
	Exercises          []ExerciseProgress `json:"exercise_progress"`
	KeyRecommendations []string           `json:"key_recommendations"`
}

// Analyzer turns workout logs into progress metrics and recommendations.
type Analyzer struct {
	plans   PlanStore
	history HistoryStore
	logger  *slog.Logger
	now     func() time.Time
	// windowDays is the lookback used when a request does not name one.
	windowDays int
}

// NewAnalyzer creates an Analyzer. A windowDays of zero or less means 90 days.
func NewAnalyzer(
	plans PlanStore,
	history HistoryStore,
	logger *slog.Logger,
	now func() time.Time,
	windowDays int,
) *Analyzer {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	return &Analyzer{plans: plans, history: history, logger: logger, now: now, windowDays: windowDays}
}

// OneRepMax estimates the one repetition maximum with the Brzycki formula. Above 36 reps the formula breaks down
// and twice the weight is used as a rough upper estimate.
func OneRepMax(weight float64, reps int) float64 {
	switch {
	case reps <= 0:
		return 0
	case reps == 1:
		return weight
	case reps > brzyckiMaxReps:
		return 2 * weight //nolint:mnd // documented upper estimate.
	}
	return weight * brzyckiMaxReps / float64(brzyckiMaxReps+1-reps)
}

// LinearTrend returns the least-squares slope of series against its index as a percentage of the first value.
// It is zero for fewer than two points or a non-positive first value.
func LinearTrend(series []float64) float64 {
	n := len(series)
	if n < 2 || series[0] <= 0 { //nolint:mnd // a line needs two points.
		return 0
	}
	var sumX, sumY float64
	for i, y := range series {
		sumX += float64(i)
		sumY += y
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)
	var covariance, variance float64
	for i, y := range series {
		dx := float64(i) - meanX
		covariance += dx * (y - meanY)
		variance += dx * dx
	}
	return covariance / variance / series[0] * 100 //nolint:mnd // percent.
}

// rating maps a strength trend to the [-5, 5] progression rating.
func rating(strengthTrend float64) int {
	r := math.Round(strengthTrend / ratingTrendPerStep)
	return int(max(-maxRating, min(r, maxRating)))
}

func percentChange(first, latest float64) float64 {
	if first <= 0 {
		return 0
	}
	return (latest/first - 1) * 100 //nolint:mnd // percent.
}

type dailyStats struct {
	date      time.Time
	oneRepMax float64
	volume    float64
	sets      int
	reps      int
}

// aggregateDaily groups logs by calendar date. Logs must be ordered by date.
func aggregateDaily(logs []LogEntry) []dailyStats {
	var days []dailyStats
	for _, l := range logs {
		date := dateOf(l.Date)
		if len(days) == 0 || !days[len(days)-1].date.Equal(date) {
			days = append(days, dailyStats{date: date})
		}
		d := &days[len(days)-1]
		d.oneRepMax = max(d.oneRepMax, OneRepMax(l.Weight, l.Reps))
		d.volume += float64(l.Sets*l.Reps) * l.Weight
		d.sets += l.Sets
		d.reps += l.Reps
	}
	return days
}

// AnalyzeExercise analyses the logs of an exercise within the last windowDays and appends a progression record.
// A window of zero or less uses the Analyzer's default. Missing history is reported as StatusNoData, not as an
// error.
func (a *Analyzer) AnalyzeExercise(ctx context.Context, userID, exerciseID, windowDays int) (Analysis, error) {
	if windowDays <= 0 {
		windowDays = a.windowDays
	}
	today := dateOf(a.now())
	logs, err := a.history.WorkoutLogs(ctx, userID, exerciseID, today.AddDate(0, 0, -windowDays))
	if err != nil {
		return Analysis{}, fmt.Errorf("fetch workout logs: %w", err)
	}
	if len(logs) == 0 {
		return Analysis{Status: StatusNoData, ExerciseID: exerciseID}, nil
	}

	days := aggregateDaily(logs)
	strength := make([]float64, len(days))
	volume := make([]float64, len(days))
	best := days[0]
	var totalVolume float64
	for i, d := range days {
		strength[i] = d.oneRepMax
		volume[i] = d.volume
		totalVolume += d.volume
		if d.oneRepMax > best.oneRepMax {
			best = d
		}
	}
	first, latest := days[0], days[len(days)-1]
	metrics := Metrics{
		StrengthChange: percentChange(first.oneRepMax, latest.oneRepMax),
		VolumeChange:   percentChange(first.volume, latest.volume),
		StrengthTrend:  LinearTrend(strength),
		VolumeTrend:    LinearTrend(volume),
		Consistency:    float64(len(days)) / (float64(windowDays) / 7), //nolint:mnd // days per week.
	}

	record := ProgressionRecord{
		UserID:     userID,
		ExerciseID: exerciseID,
		Date:       today,
		OneRepMax:  latest.oneRepMax,
		Volume:     latest.volume,
		Rating:     rating(metrics.StrengthTrend),
	}
	if err = a.history.AppendProgressionRecord(ctx, record); err != nil {
		return Analysis{}, fmt.Errorf("append progression record: %w", err)
	}
	a.logger.LogAttrs(ctx, slog.LevelDebug, "analyzed exercise",
		slog.Int("exercise_id", exerciseID),
		slog.Int("workout_days", len(days)),
		slog.Float64("strength_trend", metrics.StrengthTrend),
		slog.Int("rating", record.Rating))

	var totalReps int
	for _, l := range logs {
		totalReps += l.Reps
	}
	return Analysis{
		Status:           StatusOK,
		ExerciseID:       exerciseID,
		HistoryDays:      daysBetween(first.date, latest.date) + 1,
		WorkoutCount:     len(days),
		CurrentOneRepMax: latest.oneRepMax,
		BestOneRepMax:    best.oneRepMax,
		BestWorkoutDate:  best.date,
		AverageVolume:    totalVolume / float64(len(days)),
		Metrics:          metrics,
		Recommendations:  recommendations(metrics, float64(totalReps)/float64(len(logs))),
	}, nil
}

func recommendations(m Metrics, meanReps float64) []string {
	var recs []string
	switch {
	case m.StrengthTrend < strengthDecliningTrend:
		recs = append(recs, "Strength is declining. Consider reducing volume and focusing on quality sets.")
	case m.StrengthTrend < 0:
		recs = append(recs,
			"Strength progress has plateaued. Try varying rep ranges or adding an intensity technique.")
	case m.StrengthTrend > strengthGreatTrend:
		recs = append(recs, "Great strength progress! Consider slightly increasing weight on your next session.")
	}
	switch {
	case m.VolumeTrend < volumeDroppingTrend:
		recs = append(recs, "Training volume has decreased significantly. Are you getting enough recovery?")
	case m.VolumeTrend > volumeRisingTrend:
		recs = append(recs,
			"Volume is increasing well. Ensure you're maintaining good form with the increased workload.")
	}
	if m.Consistency < lowConsistencyPerWeek {
		recs = append(recs, "Consider increasing training frequency for better progress.")
	}
	switch {
	case meanReps > highRepsThreshold:
		recs = append(recs,
			"Your rep ranges are high. For strength, consider including some lower rep sets (4-6 reps).")
	case meanReps < lowRepsThreshold:
		recs = append(recs,
			"Your rep ranges are low. For muscle growth, include some moderate rep sets (8-12 reps).")
	}
	return recs
}

// PlanReport analyses every exercise of a plan concurrently. An unknown plan is reported as StatusNoData.
func (a *Analyzer) PlanReport(ctx context.Context, userID int, planID uuid.UUID) (PlanReport, error) {
	plan, err := a.plans.GetPlan(ctx, planID)
	if errors.Is(err, ErrNotFound) {
		return PlanReport{Status: StatusNoData, PlanID: planID}, nil
	}
	if err != nil {
		return PlanReport{}, fmt.Errorf("get plan: %w", err)
	}

	exercises := plan.Exercises()
	progress := make([]ExerciseProgress, len(exercises))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(planReportConcurrency)
	for i, e := range exercises {
		g.Go(func() error {
			analysis, analyzeErr := a.AnalyzeExercise(gctx, userID, e.ID, 0)
			if analyzeErr != nil {
				return fmt.Errorf("analyze exercise %d: %w", e.ID, analyzeErr)
			}
			progress[i] = ExerciseProgress{Exercise: e, Analysis: analysis}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return PlanReport{}, err //nolint:wrapcheck // already wrapped in the goroutine.
	}

	var (
		trendSum  float64
		succeeded int
		keyRecs   []string
	)
	for _, p := range progress {
		if p.Analysis.Status != StatusOK {
			continue
		}
		trendSum += p.Analysis.Metrics.StrengthTrend
		succeeded++
		for _, rec := range p.Analysis.Recommendations {
			if len(keyRecs) < maxKeyRecommendations {
				keyRecs = append(keyRecs, p.Exercise.Title+": "+rec)
			}
		}
	}
	report := PlanReport{
		Status:             StatusOK,
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		Goal:               plan.Goal,
		AverageStrength:    0,
		ExerciseCount:      len(progress),
		StartDate:          plan.StartDate,
		DaysActive:         max(0, daysBetween(plan.StartDate, a.now())),
		Exercises:          progress,
		KeyRecommendations: keyRecs,
	}
	if succeeded > 0 {
		report.AverageStrength = trendSum / float64(succeeded)
	}
	return report, nil
}
