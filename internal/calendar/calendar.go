// Package calendar 把每周重复的班次展开成具体日期上的排班
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
	"github.com/teambition/rrule-go"
)

const DateLayout = time.DateOnly

// 一次最多展开一年
const MaxRangeDays = 366

var (
	ErrInvalidRange  = errors.New("结束日期不能早于开始日期")
	ErrRangeTooLarge = fmt.Errorf("日期范围不能超过 %d 天", MaxRangeDays)
)

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

type Occurrence struct {
	ShiftID     string           `json:"shiftId"`
	Series      string           `json:"series"`
	Alias       string           `json:"alias,omitempty"`
	Date        string           `json:"date"`
	DayOfWeek   domain.DayOfWeek `json:"dayOfWeek"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	RequiredTAs int              `json:"requiredTas"`
	AssignedTAs []string         `json:"assignedTas"`
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式错误，应为 YYYY-MM-DD: %q", s)
	}
	return t, nil
}

// Expand 返回 [from, until] 之间（包含两端）每一天的班次，按开始时间排序。
// 没有具体日期的班次每周在对应的星期出现一次，有具体日期的班次只在当天出现。
func Expand(t domain.Timetable, from, until time.Time) ([]Occurrence, error) {
	from = truncateToDay(from)
	until = truncateToDay(until)
	if until.Before(from) {
		return nil, ErrInvalidRange
	}
	if until.Sub(from) > MaxRangeDays*24*time.Hour {
		return nil, ErrRangeTooLarge
	}

	assigned := make(map[string][]string)
	for _, sa := range t.ShiftAssignments {
		if sa.AssignedTA != nil {
			assigned[sa.Shift.ID] = append(assigned[sa.Shift.ID], sa.AssignedTA.Name)
		}
	}

	res := make([]Occurrence, 0)
	for _, shift := range t.Shifts {
		dates, err := shiftDates(shift, from, until)
		if err != nil {
			return nil, err
		}

		startMin, err := timegrid.ParseMinutesSinceMidnight(shift.StartTime)
		if err != nil {
			return nil, fmt.Errorf("班次 %s: %w", shift.ID, err)
		}
		endMin, err := timegrid.ParseMinutesSinceMidnight(shift.EndTime)
		if err != nil {
			return nil, fmt.Errorf("班次 %s: %w", shift.ID, err)
		}

		names := assigned[shift.ID]
		if names == nil {
			names = []string{}
		}

		for _, d := range dates {
			res = append(res, Occurrence{
				ShiftID:     shift.ID,
				Series:      shift.Series,
				Alias:       shift.Alias,
				Date:        d.Format(DateLayout),
				DayOfWeek:   shift.DayOfWeek,
				Start:       d.Add(time.Duration(startMin) * time.Minute),
				End:         d.Add(time.Duration(endMin) * time.Minute),
				RequiredTAs: shift.RequiredTAs,
				AssignedTAs: names,
			})
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].Start.Equal(res[j].Start) {
			return res[i].Start.Before(res[j].Start)
		}
		return res[i].Series < res[j].Series
	})

	return res, nil
}

func shiftDates(shift domain.Shift, from, until time.Time) ([]time.Time, error) {
	if shift.IsDated() {
		d, err := ParseDate(shift.ShiftDate, from.Location())
		if err != nil {
			return nil, fmt.Errorf("班次 %s: %w", shift.ID, err)
		}
		if d.Before(from) || d.After(until) {
			return nil, nil
		}
		return []time.Time{d}, nil
	}

	idx := shift.DayOfWeek.Index()
	if idx < 0 {
		return nil, fmt.Errorf("班次 %s: 无法识别的星期 %q", shift.ID, shift.DayOfWeek)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{weekdays[idx]},
		Dtstart:   from,
		Until:     until,
	})
	if err != nil {
		return nil, fmt.Errorf("班次 %s: %w", shift.ID, err)
	}

	return rule.All(), nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
