package points

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/choretally/internal/model"
)

var base = time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC) // a Wednesday

func members(names ...string) []model.Member {
	out := make([]model.Member, len(names))
	for i, n := range names {
		out[i] = model.Member{
			MembershipID: int64(i + 1),
			UserID:       int64(i + 1),
			Email:        n + "@example.com",
		}
	}
	return out
}

func TestComputeRoomies(t *testing.T) {
	m := members("a", "b")
	logs := []model.PointsLog{
		{UserID: 1, Points: 5, CreatedAt: base}, // Dishes
		{UserID: 2, Points: 3, CreatedAt: base}, // Trash
		{UserID: 2, Points: 3, CreatedAt: base.Add(time.Minute)},
	}

	got := Compute(m, logs, AllTime())
	require.Len(t, got, 2)
	assert.Equal(t, model.UserPoints{UserID: 2, DisplayName: "b", TotalPoints: 6}, got[0])
	assert.Equal(t, model.UserPoints{UserID: 1, DisplayName: "a", TotalPoints: 5}, got[1])
}

func TestComputeIncludesIdleMembers(t *testing.T) {
	m := members("a", "b", "c")
	logs := []model.PointsLog{{UserID: 3, Points: 2, CreatedAt: base}}

	got := Compute(m, logs, AllTime())
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].UserID)
	for _, up := range got[1:] {
		assert.Zero(t, up.TotalPoints)
	}
}

func TestComputeNoLogs(t *testing.T) {
	got := Compute(members("a"), nil, AllTime())
	require.Len(t, got, 1)
	assert.Zero(t, got[0].TotalPoints)
}

func TestComputeTiesKeepJoinOrder(t *testing.T) {
	m := members("a", "b", "c")
	logs := []model.PointsLog{
		{UserID: 3, Points: 4, CreatedAt: base},
		{UserID: 2, Points: 4, CreatedAt: base},
		{UserID: 1, Points: 4, CreatedAt: base},
	}
	got := Compute(m, logs, AllTime())
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].UserID, got[1].UserID, got[2].UserID})
}

func TestComputeIgnoresNonMembers(t *testing.T) {
	logs := []model.PointsLog{{UserID: 99, Points: 10, CreatedAt: base}}
	got := Compute(members("a"), logs, AllTime())
	require.Len(t, got, 1)
	assert.Zero(t, got[0].TotalPoints)
}

func TestComputeWindowInclusive(t *testing.T) {
	start := base
	end := base.Add(time.Hour)
	logs := []model.PointsLog{
		{UserID: 1, Points: 1, CreatedAt: start.Add(-time.Nanosecond)},
		{UserID: 1, Points: 10, CreatedAt: start},
		{UserID: 1, Points: 100, CreatedAt: end},
		{UserID: 1, Points: 1000, CreatedAt: end.Add(time.Nanosecond)},
	}
	got := Compute(members("a"), logs, Between(start, end))
	assert.Equal(t, 110, got[0].TotalPoints)
}

func TestDisplayNamePrefersName(t *testing.T) {
	m := []model.Member{{UserID: 1, Name: "Alice", Email: "alice@example.com"}}
	got := Compute(m, nil, AllTime())
	assert.Equal(t, "Alice", got[0].DisplayName)
}

func TestWeekWindow(t *testing.T) {
	w := WeekWindow(base, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, base, w.End)
	assert.Equal(t, time.Sunday, w.Start.Weekday())
}

func TestWeekWindowOnSunday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	w := WeekWindow(sunday, time.UTC)
	assert.Equal(t, sunday, w.Start)
	assert.True(t, w.Contains(sunday))
}

func TestWeekWindowTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC Sunday is still Saturday evening in New York.
	now := time.Date(2026, 3, 8, 2, 0, 0, 0, time.UTC)
	w := WeekWindow(now, ny)
	assert.Equal(t, time.Saturday, now.In(ny).Weekday())
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, ny), w.Start)
}

func TestAllTimeContainsEverything(t *testing.T) {
	assert.True(t, AllTime().Contains(time.Time{}))
	assert.True(t, AllTime().Contains(base))
}
