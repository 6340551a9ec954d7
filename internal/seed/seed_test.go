package seed

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

func open(t *testing.T, name string) *os.File {
	t.Helper()

	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestImport(t *testing.T) {
	res, err := Import(open(t, "tas.csv"), open(t, "shifts.csv"), open(t, "availability.csv"))
	require.NoError(t, err)

	tt := res.Timetable
	require.Len(t, tt.Shifts, 4)
	require.Len(t, tt.TAs, 3)
	assert.Empty(t, tt.ShiftAssignments)

	lab := tt.Shifts[0]
	assert.Equal(t, "CS1MD3-L01", lab.Series)
	assert.Equal(t, "Lab 1", lab.Alias)
	assert.Equal(t, domain.Monday, lab.DayOfWeek)
	assert.Equal(t, "08:30:00", lab.StartTime)
	assert.Equal(t, "10:30:00", lab.EndTime)
	assert.Equal(t, 2, lab.RequiredTAs)
	assert.False(t, lab.IsDated())

	tutorial := tt.Shifts[2]
	assert.Equal(t, domain.Tuesday, tutorial.DayOfWeek)
	assert.Equal(t, "16:00:00", tutorial.EndTime)

	exam := tt.Shifts[3]
	assert.True(t, exam.IsDated())
	assert.Equal(t, "22:00:00", exam.EndTime)

	smith := tt.TAs[0]
	assert.Equal(t, "smithj", smith.ID)
	assert.True(t, smith.IsGradStudent)
	assert.Len(t, smith.Desired, 2, "同一个系列的所有班次")
	assert.Len(t, smith.Undesired, 1)
	assert.Len(t, smith.Unavailable, 1)
	assert.Equal(t, domain.Desired, domain.DesirabilityFor(smith, tt.Shifts[1]))

	lee := tt.TAs[1]
	assert.False(t, lee.IsGradStudent)
	assert.Len(t, lee.Unavailable, 3)

	wang := tt.TAs[2]
	assert.Empty(t, wang.Desired)

	require.Len(t, res.Warnings, 4)
	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "ghost")
	assert.Contains(t, joined, "CS3AC3-L01")
	assert.Contains(t, joined, "wangw")
	assert.Contains(t, joined, "leea 可以值班的班次数 0 少于要求的 1")
}

func TestImportWithoutAvailability(t *testing.T) {
	res, err := Import(open(t, "tas.csv"), open(t, "shifts.csv"), nil)
	require.NoError(t, err)
	assert.Len(t, res.Timetable.TAs, 3)
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.Timetable.ID)
}

func TestReadTAsErrors(t *testing.T) {
	cases := []string{
		"macid,name,type\nx,X,Grad\n",
		"macid,name,req_shift_per_week,type\nx,X,1,Grad\nx,Y,1,Grad\n",
		"macid,name,req_shift_per_week,type\nx,X,two,Grad\n",
		"macid,name,req_shift_per_week,type\nx,X,-1,Grad\n",
		"macid,name,req_shift_per_week,type\n,X,1,Grad\n",
		"",
		"macid,name,req_shift_per_week,type\nx,X,1\n",
	}
	for _, in := range cases {
		_, err := ReadTAs(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestReadShiftsErrors(t *testing.T) {
	header := "name,series,day_of_week,date,start_time,duration,req_ta_per_shift\n"
	cases := []string{
		"L,S,Funday,,08:30,1,1\n",
		"L,S,Monday,12/01/2025,08:30,1,1\n",
		"L,S,Monday,,8:30:00,1,1\n",
		"L,S,Monday,,08:30,0,1\n",
		"L,S,Monday,,23:30,1,1\n",
		"L,S,Monday,,08:30,1,-2\n",
		"L,,Monday,,08:30,1,1\n",
	}
	for _, row := range cases {
		_, err := ReadShifts(strings.NewReader(header + row))
		assert.Error(t, err, row)
	}
}

func TestReadShiftsBOMHeader(t *testing.T) {
	in := "\ufeffName,Series,Day_Of_Week,Date,Start_Time,Duration,Req_TA_Per_Shift\nL,S,mon,,09:00,0.5,1\n"
	shifts, err := ReadShifts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "09:30:00", shifts[0].EndTime)
	assert.NotEmpty(t, shifts[0].ID)
}
