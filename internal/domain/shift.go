package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// Weekdays 按周一到周日的顺序排列
var Weekdays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDayOfWeek 同时接受完整的英文名和三个字母的缩写（demo 数据使用 Mon..Sun），大小写不敏感
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, day := range Weekdays {
		full := strings.ToLower(string(day))
		if v == full || v == full[:3] {
			return day, nil
		}
	}
	return "", fmt.Errorf("无法识别的星期: %q", s)
}

// UnmarshalJSON 空字符串保持为空（只带 ID 的班次引用），由调用方校验
func (d *DayOfWeek) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = ""
		return nil
	}
	day, err := ParseDayOfWeek(s)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// Index 周一为 0，周日为 6，未知值为 -1
func (d DayOfWeek) Index() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

func (d DayOfWeek) Weekday() time.Weekday {
	// time.Weekday 以周日为 0
	return time.Weekday((d.Index() + 1) % 7)
}

// UndatedShiftDate 是原有数据中表示"没有具体日期"的占位值
const UndatedShiftDate = "1900-01-01"

type Shift struct {
	ID          string    `json:"id"`
	Series      string    `json:"series"`
	DayOfWeek   DayOfWeek `json:"dayOfWeek"`
	StartTime   string    `json:"startTime"` // HH:MM:SS
	EndTime     string    `json:"endTime"`   // HH:MM:SS
	RequiredTAs int       `json:"requiredTas"`
	Alias       string    `json:"alias,omitempty"`
	ShiftDate   string    `json:"shiftDate,omitempty"` // YYYY-MM-DD
}

// IsDated 判断班次是否只在某个具体日期出现（否则每周重复）
func (s Shift) IsDated() bool {
	return s.ShiftDate != "" && s.ShiftDate != UndatedShiftDate
}
