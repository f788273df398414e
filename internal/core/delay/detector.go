// Package delay classifies overdue milestones against the current calendar
// day. The check is pure with respect to today: identical inputs always
// yield identical results.
package delay

import (
	"sort"
	"time"

	"pmes/internal/model"
)

// Result is the outcome of a delay check for one project.
type Result struct {
	IsDelayed         bool
	OverdueMilestones []model.OverdueMilestone
	Info              model.DelayInfo
}

// CheckProject scans the project's milestones for overdue ones. A milestone
// is overdue iff its status is not terminal and its due date, truncated to
// day granularity, is strictly before today's calendar day. Same-day due
// dates are never flagged; the comparison is timezone-naive.
func CheckProject(milestones []model.Milestone, today time.Time) Result {
	todayDay := truncateDay(today)

	var overdue []model.OverdueMilestone
	for _, m := range milestones {
		if !m.Open() {
			continue
		}

		dueDay := truncateDay(m.DueDate)
		if !dueDay.Before(todayDay) {
			continue
		}

		daysOverdue := int(todayDay.Sub(dueDay).Hours() / 24)
		overdue = append(overdue, model.OverdueMilestone{
			MilestoneID: m.ID,
			Title:       m.Title,
			DueDate:     m.DueDate,
			DaysOverdue: daysOverdue,
			Weight:      m.Weight,
		})
	}

	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].DueDate.Before(overdue[j].DueDate)
	})

	maxDaysOverdue := 0
	totalOverdueWeight := 0.0
	for _, om := range overdue {
		if om.DaysOverdue > maxDaysOverdue {
			maxDaysOverdue = om.DaysOverdue
		}
		totalOverdueWeight += om.Weight
	}

	info := model.DelayInfo{
		OverdueMilestoneCount: len(overdue),
		MaxDaysOverdue:        maxDaysOverdue,
		TotalOverdueWeight:    totalOverdueWeight,
		Severity:              Severity(maxDaysOverdue, totalOverdueWeight),
	}
	if len(overdue) > 0 {
		first := overdue[0].DueDate
		info.FirstOverdueDate = &first
	}

	return Result{
		IsDelayed:         len(overdue) > 0,
		OverdueMilestones: overdue,
		Info:              info,
	}
}

// Severity classifies a delay from worst single-milestone lateness and
// aggregate overdue weight. Rules are evaluated in order; the first match
// wins.
func Severity(maxDaysOverdue int, totalOverdueWeight float64) model.Severity {
	switch {
	case maxDaysOverdue >= 30 || totalOverdueWeight >= 50:
		return model.SeverityCritical
	case maxDaysOverdue >= 14 || totalOverdueWeight >= 30:
		return model.SeverityHigh
	case maxDaysOverdue >= 7 || totalOverdueWeight >= 15:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
