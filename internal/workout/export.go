package workout

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//nolint:gochecknoglobals // goldmark.Markdown is safe for concurrent use.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// escapeCell makes s safe to use inside a Markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderPlanMarkdown renders a printable overview of the plan.
func RenderPlanMarkdown(plan Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", plan.Name)
	fmt.Fprintf(&b, "- **Goal:** %s\n", plan.Goal)
	fmt.Fprintf(&b, "- **Level:** %s\n", plan.Level)
	fmt.Fprintf(&b, "- **Duration:** %d weeks, %d workouts per week\n", plan.DurationWeeks, plan.WorkoutsPerWeek)
	fmt.Fprintf(&b, "- **Start date:** %s\n", plan.StartDate.Format(time.DateOnly))
	if len(plan.Equipment) > 0 {
		fmt.Fprintf(&b, "- **Equipment:** %s\n", strings.Join(plan.Equipment, ", "))
	}
	for _, week := range plan.Weeks {
		fmt.Fprintf(&b, "\n## Week %d", week.Week)
		if week.IsDeload {
			b.WriteString(" (deload)")
		}
		b.WriteString("\n")
		for _, day := range week.Workouts {
			fmt.Fprintf(&b, "\n### %s: %s\n\n", weekdayName(day.Day), day.Focus)
			if len(day.Exercises) == 0 {
				b.WriteString("Rest day.\n")
				continue
			}
			b.WriteString("| Exercise | Sets | Reps | Rest | Tempo |\n")
			b.WriteString("| --- | --- | --- | --- | --- |\n")
			for _, a := range day.Exercises {
				fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
					escapeCell(a.Exercise.Title), a.Sets, a.Reps, escapeCell(a.Rest), escapeCell(a.Tempo))
			}
		}
	}
	return b.String()
}

// RenderPlanHTML renders the Markdown overview of the plan to an HTML fragment.
func RenderPlanHTML(plan Plan) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(RenderPlanMarkdown(plan)), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}
