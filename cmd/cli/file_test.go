package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
)

const yamlTimetable = `
id: tt-1
shifts:
  - id: s1
    series: LAB-1
    dayOfWeek: Mon
    startTime: "08:30:00"
    endTime: "10:20:00"
    requiredTas: 2
tas:
  - id: alice
    name: Alice
    requiredShifts: 1
    desired:
      - id: s1
shiftAssignments: []
`

func TestDecodeYAML(t *testing.T) {
	tt, err := decodeTimetable(strings.NewReader(yamlTimetable), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "tt-1", tt.ID)
	require.Len(t, tt.Shifts, 1)
	assert.Equal(t, domain.Monday, tt.Shifts[0].DayOfWeek)
	require.Len(t, tt.TAs, 1)
	// 偏好中只带 ID 的班次会被替换成课表中的完整班次
	require.Len(t, tt.TAs[0].Desired, 1)
	assert.Equal(t, "LAB-1", tt.TAs[0].Desired[0].Series)
}

func TestEncodeRoundTrip(t *testing.T) {
	tt, err := decodeTimetable(strings.NewReader(yamlTimetable), "yaml")
	require.NoError(t, err)

	for _, format := range []string{"json", "yaml"} {
		var buf bytes.Buffer
		require.NoError(t, encodeTimetable(&buf, tt, format))

		got, err := decodeTimetable(&buf, format)
		require.NoError(t, err, format)
		assert.Equal(t, tt.Shifts, got.Shifts, format)
		assert.Equal(t, tt.TAs[0].ID, got.TAs[0].ID, format)
	}
}

func TestDecodeAssignsID(t *testing.T) {
	tt, err := decodeTimetable(strings.NewReader(`{"shifts":[],"tas":[]}`), "json")
	require.NoError(t, err)
	assert.NotEmpty(t, tt.ID)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := decodeTimetable(strings.NewReader(`{"shifts": 1}`), "json")
	assert.Error(t, err)

	_, err = decodeTimetable(strings.NewReader("shifts: [\n"), "yaml")
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "yaml", formatOf("roster.YML"))
	assert.Equal(t, "yaml", formatOf("a/b/roster.yaml"))
	assert.Equal(t, "json", formatOf("roster.json"))
	assert.Equal(t, "json", formatOf("roster"))
}

func TestPrintGrid(t *testing.T) {
	tt, err := decodeTimetable(strings.NewReader(yamlTimetable), "yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printGrid(&buf, timegrid.DefaultGrid, tt))
	assert.Contains(t, buf.String(), "LAB-1")
	assert.Contains(t, buf.String(), "Monday")
}

func TestPrintDesirability(t *testing.T) {
	tt, err := decodeTimetable(strings.NewReader(yamlTimetable), "yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printDesirability(&buf, tt))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Alice")
	assert.Contains(t, lines[1], string(domain.Desired))
}
