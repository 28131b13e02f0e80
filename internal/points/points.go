// Package points aggregates chore logs into per-member totals.
package points

import (
	"sort"
	"time"

	"github.com/dukerupert/choretally/internal/model"
)

// Window bounds the logs that count toward a total. Both ends are inclusive
// and a zero bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

// AllTime is the unbounded window.
func AllTime() Window { return Window{} }

func Between(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// WeekWindow runs from Sunday 00:00 of now's week in loc up to now.
func WeekWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d-int(local.Weekday()), 0, 0, 0, 0, loc)
	return Window{Start: start, End: now}
}

func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Compute returns one entry per member with the summed points of their logs
// inside w, highest first. Members with equal totals keep their join order.
// Logs by users who are not members are ignored.
func Compute(members []model.Member, logs []model.PointsLog, w Window) []model.UserPoints {
	totals := make(map[int64]int, len(members))
	for _, m := range members {
		totals[m.UserID] = 0
	}
	for _, l := range logs {
		if _, ok := totals[l.UserID]; !ok {
			continue
		}
		if !w.Contains(l.CreatedAt) {
			continue
		}
		totals[l.UserID] += l.Points
	}

	out := make([]model.UserPoints, 0, len(members))
	for _, m := range members {
		name := m.DisplayName
		if name == "" {
			name = model.DisplayName(m.Name, m.Email)
		}
		out = append(out, model.UserPoints{
			UserID:      m.UserID,
			DisplayName: name,
			TotalPoints: totals[m.UserID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPoints > out[j].TotalPoints
	})
	return out
}
