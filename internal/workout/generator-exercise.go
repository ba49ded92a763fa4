package workout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// quota is the number of exercises to pick per category.
type quota map[Category]int

//nolint:gochecknoglobals // read-only lookup table.
var levelQuotas = map[Level]quota{
	LevelBeginner:     {CategoryCompound: 2, CategoryIsolation: 2, CategoryCardio: 1, CategoryMobility: 1},
	LevelIntermediate: {CategoryCompound: 3, CategoryIsolation: 3, CategoryCardio: 1, CategoryMobility: 1},
	LevelAdvanced:     {CategoryCompound: 4, CategoryIsolation: 4, CategoryCardio: 1, CategoryMobility: 1},
}

// quotaFor returns the per-category quota for a level adjusted by goal. Only the first matching goal rule applies.
func quotaFor(goal Goal, level Level) quota {
	base, ok := levelQuotas[level]
	if !ok {
		base = levelQuotas[LevelBeginner]
	}
	q := make(quota, len(base))
	for c, n := range base {
		q[c] = n
	}
	switch {
	case goal.has("Body Building"):
		q[CategoryIsolation]++
	case goal.has("Sports"):
		q[CategoryCompound]++
	case goal.has("Weight Loss"):
		q[CategoryCardio]++
	case goal.has("Mobility"):
		q[CategoryMobility] += 2
		q[CategoryCompound] = max(0, q[CategoryCompound]-1)
		q[CategoryIsolation] = max(0, q[CategoryIsolation]-1)
	}
	return q
}

// focusKeywords returns the first and last keyword of a focus label like "Chest/Triceps".
func focusKeywords(focus string) []string {
	parts := strings.Split(strings.ToLower(focus), "/")
	first := strings.TrimSpace(parts[0])
	last := strings.TrimSpace(parts[len(parts)-1])
	if first == last {
		return []string{first}
	}
	return []string{first, last}
}

// selectExercises picks random catalog exercises matching focus, filling the quota category by category.
//
// A catalog that cannot fill a quota is not an error, the day just gets fewer exercises.
func (g *Generator) selectExercises(ctx context.Context, focus string, prefs Preferences) ([]Exercise, error) {
	q := quotaFor(prefs.Goal, prefs.Level)
	keywords := focusKeywords(focus)
	var selected []Exercise
	for _, category := range categoryOrder {
		want := q[category]
		if want <= 0 {
			continue
		}
		candidates, err := g.catalog.QueryExercises(ctx, ExerciseQuery{
			Category:           category,
			Keywords:           keywords,
			Equipment:          prefs.Equipment,
			ExcludeLimitations: prefs.excludedLimitations(),
		})
		if err != nil {
			return nil, fmt.Errorf("query %s exercises for %q: %w", category, focus, err)
		}
		g.shuffle(candidates)
		if len(candidates) < want {
			g.logger.LogAttrs(ctx, slog.LevelDebug, "catalog could not fill quota",
				slog.Any("error", ErrInsufficientCatalog),
				slog.String("focus", focus),
				slog.String("category", string(category)),
				slog.Int("wanted", want),
				slog.Int("found", len(candidates)))
			want = len(candidates)
		}
		selected = append(selected, candidates[:want]...)
	}
	return selected, nil
}

func (g *Generator) shuffle(exercises []Exercise) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rand.Shuffle(len(exercises), func(i, j int) {
		exercises[i], exercises[j] = exercises[j], exercises[i]
	})
}
