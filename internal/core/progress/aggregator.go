// Package progress computes a project's overall progress from its three
// division scores. All functions are pure; callers persist the results.
package progress

import (
	"fmt"
	"math"
	"time"

	"pmes/internal/model"
)

// Weights is the division split of overall progress. The three weights must
// sum to exactly 100; the canonical default is 33.33/33.33/33.34 so the
// parts recombine to 100.00 without drift.
type Weights struct {
	Timeline float64
	Budget   float64
	Physical float64
}

// DefaultWeights returns the canonical division split.
func DefaultWeights() Weights {
	return Weights{Timeline: 33.33, Budget: 33.33, Physical: 33.34}
}

// Validate checks the configured weights sum to 100.
func (w Weights) Validate() error {
	sum := w.Timeline + w.Budget + w.Physical
	if math.Abs(sum-100) > 1e-9 {
		return fmt.Errorf("division weights must sum to 100, got %.4f", sum)
	}
	if w.Timeline < 0 || w.Budget < 0 || w.Physical < 0 {
		return fmt.Errorf("division weights must be non-negative")
	}
	return nil
}

// ComputeOverall recombines the three division scores into overall progress.
// Inputs and weights are percentages; the result is clamped to [0,100] and
// rounded to two decimals.
func ComputeOverall(timeline, budget, physical float64, w Weights) float64 {
	overall := timeline*w.Timeline/100 +
		budget*w.Budget/100 +
		physical*w.Physical/100
	return round2(clamp(overall))
}

// Apply stores the clamped division scores on the project, recomputes
// overall progress, and advances the lifecycle status: overall >= 100 marks
// the project complete and stamps the completion date; overall > 0 advances
// a pending project to ongoing. It never downgrades delayed - only the
// status manager may resolve a delay.
func Apply(p *model.Project, timeline, budget, physical float64, w Weights, now time.Time) {
	p.TimelineProgress = round2(clamp(timeline))
	p.BudgetProgress = round2(clamp(budget))
	p.PhysicalProgress = round2(clamp(physical))
	p.OverallProgress = ComputeOverall(p.TimelineProgress, p.BudgetProgress, p.PhysicalProgress, w)

	if p.OverallProgress >= 100 {
		p.Status = model.ProjectComplete
		if p.CompletionDate == nil {
			completed := now
			p.CompletionDate = &completed
		}
	} else if p.OverallProgress > 0 && p.Status == model.ProjectPending {
		p.Status = model.ProjectOngoing
	}

	updated := now
	p.LastProgressUpdate = &updated
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
