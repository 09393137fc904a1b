// Package ui renders matcher output for the terminal. Structured logs
// go through internal/logging; this package is the human surface.
package ui

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/acurlabs/faqmatch/internal/telemetry"
	"github.com/acurlabs/faqmatch/pkg/match"
)

// Printer writes human-readable matcher output.
type Printer struct {
	out    io.Writer
	styles Styles
}

// NewPrinter creates a printer. Pass noColor=true for pipes and CI.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	return &Printer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// MatchResult renders one match outcome.
func (p *Printer) MatchResult(query string, result *match.Result) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Label.Render("Query:"), query)

	answerStyle := p.styles.Answer
	if result.State == match.StateClarify {
		answerStyle = p.styles.Clarify
	}
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Label.Render("Answer:"), answerStyle.Render(result.Answer))

	if result.ID != nil {
		fmt.Fprintf(p.out, "%s #%d %s\n",
			p.styles.Label.Render("Matched:"), *result.ID,
			p.styles.Score.Render(fmt.Sprintf("(score %.3f)", result.Score)))
	} else if result.Score > 0 {
		fmt.Fprintf(p.out, "%s %s\n",
			p.styles.Label.Render("Best score:"),
			p.styles.Score.Render(fmt.Sprintf("%.3f (below threshold)", result.Score)))
	}

	if result.Degraded {
		fmt.Fprintln(p.out, p.styles.Warning.Render("note: embedding provider unavailable, lexical ranking used"))
	}

	if len(result.Alternates) > 0 {
		fmt.Fprintf(p.out, "%s\n", p.styles.Label.Render("Related questions:"))
		for _, alt := range result.Alternates {
			fmt.Fprintf(p.out, "  - %s %s\n", alt.Question,
				p.styles.Dim.Render(fmt.Sprintf("(#%d, %.3f)", alt.ID, alt.Score)))
		}
	}
}

// Metrics renders a telemetry snapshot.
func (p *Printer) Metrics(snap *telemetry.MatchMetricsSnapshot) {
	fmt.Fprintln(p.out, p.styles.Header.Render("Match metrics"))
	fmt.Fprintf(p.out, "  total: %d  clarify: %d (%.1f%%)  degraded: %d\n",
		snap.TotalMatches, snap.ClarifyCount, snap.ClarifyPercentage(), snap.DegradedCount)

	if len(snap.LatencyDistribution) > 0 {
		buckets := make([]string, 0, len(snap.LatencyDistribution))
		for b := range snap.LatencyDistribution {
			buckets = append(buckets, string(b))
		}
		sort.Strings(buckets)
		fmt.Fprintf(p.out, "  %s", p.styles.Label.Render("latency:"))
		for _, b := range buckets {
			fmt.Fprintf(p.out, " %s=%d", b, snap.LatencyDistribution[telemetry.LatencyBucket(b)])
		}
		fmt.Fprintln(p.out)
	}

	if len(snap.ClarifiedQueries) > 0 {
		fmt.Fprintln(p.out, p.styles.Label.Render("  unanswered queries:"))
		for _, q := range snap.ClarifiedQueries {
			fmt.Fprintf(p.out, "    - %s\n", q)
		}
	}
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Error.Render("error: "+fmt.Sprintf(format, args...)))
}

// Successf writes a success line.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Answer.Render(fmt.Sprintf(format, args...)))
}

// Progressf writes a progress line with a duration.
func (p *Printer) Progressf(d time.Duration, format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", fmt.Sprintf(format, args...),
		p.styles.Dim.Render(fmt.Sprintf("(%s)", d.Round(time.Millisecond))))
}
