package timegrid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

func TestParseMinutesSinceMidnight(t *testing.T) {
	cases := map[string]int{
		"00:00:00": 0,
		"08:30:00": 510,
		"12:00:00": 720,
		"23:59:59": 1439,
	}
	for in, want := range cases {
		got, err := ParseMinutesSinceMidnight(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseMinutesSinceMidnightMalformed(t *testing.T) {
	for _, in := range []string{"", "8:30:00", "08:30", "24:00:00", "08:60:00", "ab:cd:ef", "08:30:00 ", "8:30 AM"} {
		_, err := ParseMinutesSinceMidnight(in)
		assert.ErrorIs(t, err, ErrMalformedTime, in)
	}
}

func TestToDisplayTime(t *testing.T) {
	cases := map[string]string{
		"00:00:00": "12:00 AM",
		"00:05:00": "12:05 AM",
		"08:30:00": "8:30 AM",
		"11:59:00": "11:59 AM",
		"12:00:00": "12:00 PM",
		"12:45:00": "12:45 PM",
		"13:30:00": "1:30 PM",
		"23:05:00": "11:05 PM",
	}
	for in, want := range cases {
		got, err := ToDisplayTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestToDisplayTimeAllValidTimes(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			in := fmt.Sprintf("%02d:%02d:00", hour, minute)

			wantHour, suffix := hour, "AM"
			switch {
			case hour == 0:
				wantHour = 12
			case hour == 12:
				suffix = "PM"
			case hour > 12:
				wantHour, suffix = hour-12, "PM"
			}
			want := fmt.Sprintf("%d:%02d %s", wantHour, minute, suffix)

			got, err := ToDisplayTime(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}
	}
}

func TestToDisplayTimeMalformed(t *testing.T) {
	_, err := ToDisplayTime("25:00:00")
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestLayout(t *testing.T) {
	p, err := Layout("08:30:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, Placement{OffsetSlots: 0, DurationSlots: 1}, p)

	p, err = Layout("10:00:00", "10:30:00")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, p.OffsetSlots, 1e-9)
	assert.InDelta(t, 0.5, p.DurationSlots, 1e-9)

	// 早于网格原点的班次偏移为负数
	p, err = Layout("08:00:00", "08:45:00")
	require.NoError(t, err)
	assert.InDelta(t, -0.5, p.OffsetSlots, 1e-9)
	assert.InDelta(t, 0.75, p.DurationSlots, 1e-9)
}

func TestGridLayoutCustomSlot(t *testing.T) {
	g := Grid{OriginMinutes: 480, SlotMinutes: 30}
	p, err := g.Layout("09:00:00", "10:15:00")
	require.NoError(t, err)
	assert.InDelta(t, 2, p.OffsetSlots, 1e-9)
	assert.InDelta(t, 2.5, p.DurationSlots, 1e-9)
}

func TestGridLayoutErrors(t *testing.T) {
	_, err := Grid{OriginMinutes: 0, SlotMinutes: 0}.Layout("08:00:00", "09:00:00")
	assert.Error(t, err)

	_, err = Layout("bad", "09:00:00")
	assert.ErrorIs(t, err, ErrMalformedTime)

	_, err = Layout("08:00:00", "9:00")
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestGridLabels(t *testing.T) {
	labels := DefaultGrid.Labels(13)
	require.Len(t, labels, 13)
	assert.Equal(t, "8:30 AM", labels[0])
	assert.Equal(t, "11:30 AM", labels[3])
	assert.Equal(t, "12:30 PM", labels[4])
	assert.Equal(t, "8:30 PM", labels[12])

	// 超出当天的刻度会被截断
	assert.Len(t, Grid{OriginMinutes: 22 * 60, SlotMinutes: 60}.Labels(5), 2)
}

func TestBlocks(t *testing.T) {
	lab := domain.Shift{ID: "s1", Series: "CS1MD3", DayOfWeek: domain.Tuesday, StartTime: "09:30:00", EndTime: "10:00:00", RequiredTAs: 2}
	tut := domain.Shift{ID: "s2", Series: "CS2ME3", DayOfWeek: domain.Monday, StartTime: "13:00:00", EndTime: "15:00:00", RequiredTAs: 1}
	early := domain.Shift{ID: "s3", Series: "CS2ME3", DayOfWeek: domain.Tuesday, StartTime: "08:30:00", EndTime: "09:30:00", RequiredTAs: 1}
	bob := domain.TA{ID: "bob", Name: "Bob"}
	alice := domain.TA{ID: "alice", Name: "Alice"}

	tt := domain.Timetable{
		Shifts: []domain.Shift{lab, tut, early},
		ShiftAssignments: []domain.ShiftAssignment{
			{ID: "a1", Shift: lab, AssignedTA: &bob},
			{ID: "a2", Shift: lab, AssignedTA: &alice},
			{ID: "a3", Shift: tut},
		},
	}

	blocks, err := DefaultGrid.Blocks(tt)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, "s2", blocks[0].ShiftID)
	assert.Equal(t, 0, blocks[0].Column)
	assert.Equal(t, Placement{OffsetSlots: 4.5, DurationSlots: 2}, blocks[0].Placement)
	assert.Equal(t, "1:00 PM", blocks[0].Start)
	assert.Equal(t, "3:00 PM", blocks[0].End)
	assert.Equal(t, 1, blocks[0].Unfilled)
	assert.Empty(t, blocks[0].AssignedTAs)

	assert.Equal(t, "s3", blocks[1].ShiftID)
	assert.Equal(t, "s1", blocks[2].ShiftID)
	assert.Equal(t, Placement{OffsetSlots: 1, DurationSlots: 0.5}, blocks[2].Placement)
	assert.Equal(t, []string{"Alice", "Bob"}, blocks[2].AssignedTAs)
	assert.Equal(t, 0, blocks[2].Unfilled)
}

func TestBlocksErrors(t *testing.T) {
	_, err := DefaultGrid.Blocks(domain.Timetable{Shifts: []domain.Shift{{ID: "x", DayOfWeek: "Someday", StartTime: "09:00:00", EndTime: "10:00:00"}}})
	assert.Error(t, err)

	_, err = DefaultGrid.Blocks(domain.Timetable{Shifts: []domain.Shift{{ID: "x", DayOfWeek: domain.Monday, StartTime: "9:00", EndTime: "10:00:00"}}})
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestBuildView(t *testing.T) {
	view, err := DefaultGrid.BuildView(domain.Timetable{})
	require.NoError(t, err)
	require.Len(t, view.Labels, 13)
	assert.Equal(t, "8:30 AM", view.Labels[0])
	assert.Equal(t, "8:30 PM", view.Labels[12])

	late := domain.Shift{ID: "x", DayOfWeek: domain.Friday, StartTime: "20:30:00", EndTime: "22:30:00"}
	view, err = DefaultGrid.BuildView(domain.Timetable{Shifts: []domain.Shift{late}})
	require.NoError(t, err)
	assert.Len(t, view.Labels, 15)
	assert.Equal(t, "10:30 PM", view.Labels[14])
}
