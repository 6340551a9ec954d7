// Package timegrid 把班次的起止时间换算成日历视图中的位置，并负责面向用户的时间显示格式
package timegrid

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformedTime = errors.New("时间格式错误，应为 HH:MM:SS")

const (
	DefaultOriginMinutes = 510 // 08:30
	DefaultSlotMinutes   = 60
)

// DefaultGrid 从 08:30 开始，每格一小时
var DefaultGrid = Grid{OriginMinutes: DefaultOriginMinutes, SlotMinutes: DefaultSlotMinutes}

type Grid struct {
	OriginMinutes int
	SlotMinutes   int
}

// Placement 以格为单位，允许小数（30 分钟的班次高度为 0.5 格）
type Placement struct {
	OffsetSlots   float64 `json:"offsetSlots"`
	DurationSlots float64 `json:"durationSlots"`
}

// ParseMinutesSinceMidnight 返回 hour*60 + minute，范围为 [0, 1439]
func ParseMinutesSinceMidnight(s string) (int, error) {
	// time.Parse 允许一位数的小时，这里要求严格的 HH:MM:SS
	if len(s) != len("15:04:05") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	t, err := time.Parse(time.TimeOnly, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (g Grid) Layout(startTime, endTime string) (Placement, error) {
	if g.SlotMinutes <= 0 {
		return Placement{}, fmt.Errorf("每格分钟数必须为正数: %d", g.SlotMinutes)
	}

	start, err := ParseMinutesSinceMidnight(startTime)
	if err != nil {
		return Placement{}, err
	}
	end, err := ParseMinutesSinceMidnight(endTime)
	if err != nil {
		return Placement{}, err
	}

	slot := float64(g.SlotMinutes)
	return Placement{
		OffsetSlots:   float64(start-g.OriginMinutes) / slot,
		DurationSlots: float64(end-start) / slot,
	}, nil
}

// Layout 使用默认网格（08:30 起，每格 60 分钟）
func Layout(startTime, endTime string) (Placement, error) {
	return DefaultGrid.Layout(startTime, endTime)
}

// ToDisplayTime 将 HH:MM:SS 转换为 "h:mm AM/PM"
func ToDisplayTime(s string) (string, error) {
	minutes, err := ParseMinutesSinceMidnight(s)
	if err != nil {
		return "", err
	}
	return formatMinutes(minutes), nil
}

func formatMinutes(minutes int) string {
	hour, minute := minutes/60, minutes%60

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}

	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}

	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}

// Labels 生成日历左侧的时间刻度，从网格原点开始每格一个
func (g Grid) Labels(n int) []string {
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		minutes := g.OriginMinutes + i*g.SlotMinutes
		if minutes < 0 || minutes >= 24*60 {
			break
		}
		labels = append(labels, formatMinutes(minutes))
	}
	return labels
}
