package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestExpandWeekly(t *testing.T) {
	monday := domain.Shift{ID: "m", Series: "CS1MD3", DayOfWeek: domain.Monday, StartTime: "08:30:00", EndTime: "09:30:00", RequiredTAs: 1}
	friday := domain.Shift{ID: "f", Series: "CS2ME3", DayOfWeek: domain.Friday, StartTime: "13:00:00", EndTime: "14:30:00", RequiredTAs: 2}
	alice := domain.TA{ID: "alice", Name: "Alice"}

	tt := domain.Timetable{
		Shifts: []domain.Shift{friday, monday},
		ShiftAssignments: []domain.ShiftAssignment{
			{ID: "a1", Shift: monday, AssignedTA: &alice},
			{ID: "a2", Shift: friday},
		},
	}

	// 2025-09-01 是周一
	occ, err := Expand(tt, date(t, "2025-09-01"), date(t, "2025-09-14"))
	require.NoError(t, err)
	require.Len(t, occ, 4)

	assert.Equal(t, "2025-09-01", occ[0].Date)
	assert.Equal(t, "m", occ[0].ShiftID)
	assert.Equal(t, []string{"Alice"}, occ[0].AssignedTAs)
	assert.Equal(t, time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC), occ[0].Start)
	assert.Equal(t, time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC), occ[0].End)

	assert.Equal(t, "2025-09-05", occ[1].Date)
	assert.Equal(t, "f", occ[1].ShiftID)
	assert.Empty(t, occ[1].AssignedTAs)
	assert.Equal(t, "2025-09-08", occ[2].Date)
	assert.Equal(t, "2025-09-12", occ[3].Date)

	for _, o := range occ {
		assert.Equal(t, o.DayOfWeek.Weekday(), o.Start.Weekday())
	}
}

func TestExpandInclusiveBounds(t *testing.T) {
	tt := domain.Timetable{Shifts: []domain.Shift{{ID: "w", DayOfWeek: domain.Wednesday, StartTime: "10:00:00", EndTime: "11:00:00"}}}

	occ, err := Expand(tt, date(t, "2025-09-03"), date(t, "2025-09-03"))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, "2025-09-03", occ[0].Date)

	occ, err = Expand(tt, date(t, "2025-09-04"), date(t, "2025-09-09"))
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestExpandDatedShift(t *testing.T) {
	tt := domain.Timetable{Shifts: []domain.Shift{
		{ID: "exam", Series: "Exam", DayOfWeek: domain.Thursday, StartTime: "09:00:00", EndTime: "12:00:00", ShiftDate: "2025-09-11"},
		{ID: "legacy", Series: "Lab", DayOfWeek: domain.Thursday, StartTime: "09:00:00", EndTime: "10:00:00", ShiftDate: domain.UndatedShiftDate},
	}}

	occ, err := Expand(tt, date(t, "2025-09-01"), date(t, "2025-09-30"))
	require.NoError(t, err)

	var exams, labs int
	for _, o := range occ {
		switch o.ShiftID {
		case "exam":
			exams++
			assert.Equal(t, "2025-09-11", o.Date)
		case "legacy":
			labs++
		}
	}
	assert.Equal(t, 1, exams)
	assert.Equal(t, 4, labs)

	occ, err = Expand(tt, date(t, "2025-10-01"), date(t, "2025-10-07"))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, "legacy", occ[0].ShiftID)
}

func TestExpandErrors(t *testing.T) {
	tt := domain.Timetable{Shifts: []domain.Shift{{ID: "x", DayOfWeek: domain.Monday, StartTime: "8:00", EndTime: "09:00:00"}}}

	_, err := Expand(tt, date(t, "2025-09-10"), date(t, "2025-09-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Expand(tt, date(t, "2025-01-01"), date(t, "2026-06-01"))
	assert.ErrorIs(t, err, ErrRangeTooLarge)

	_, err = Expand(tt, date(t, "2025-09-01"), date(t, "2025-09-07"))
	assert.Error(t, err)

	_, err = ParseDate("2025/09/01", time.UTC)
	assert.Error(t, err)
}
