package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
)

// 这些检查在 dispatch 之前进行，不通过时不修改课表

func ValidateShift(shift domain.Shift) error {
	if shift.DayOfWeek.Index() < 0 {
		return fmt.Errorf("无法识别的星期: %q", shift.DayOfWeek)
	}

	start, err := timegrid.ParseMinutesSinceMidnight(shift.StartTime)
	if err != nil {
		return fmt.Errorf("开始时间格式错误: %w", err)
	}
	end, err := timegrid.ParseMinutesSinceMidnight(shift.EndTime)
	if err != nil {
		return fmt.Errorf("结束时间格式错误: %w", err)
	}
	// 比较到秒，HH:MM:SS 的字典序即时间顺序
	if start > end || (start == end && shift.StartTime >= shift.EndTime) {
		return errors.New("结束时间必须晚于开始时间")
	}

	if shift.RequiredTAs < 0 {
		return errors.New("所需 TA 人数不能为负数")
	}

	if shift.ShiftDate != "" {
		if _, err := time.Parse(time.DateOnly, shift.ShiftDate); err != nil {
			return fmt.Errorf("日期格式错误，应为 YYYY-MM-DD: %q", shift.ShiftDate)
		}
	}

	return nil
}

// ValidateShiftInTimetable 检查班次本身，以及是否和课表中其他班次重复（系列、星期、起止时间都相同）
func ValidateShiftInTimetable(t domain.Timetable, shift domain.Shift) error {
	if err := ValidateShift(shift); err != nil {
		return err
	}

	for _, s := range t.Shifts {
		if s.ID == shift.ID {
			continue
		}
		if s.Series == shift.Series && s.DayOfWeek == shift.DayOfWeek && s.StartTime == shift.StartTime && s.EndTime == shift.EndTime && s.ShiftDate == shift.ShiftDate {
			return fmt.Errorf("班次已存在: %s %s %s-%s", shift.Series, shift.DayOfWeek, shift.StartTime, shift.EndTime)
		}
	}

	return nil
}

// ValidateTAInTimetable 检查 TA 本身；isNew 为 true 时 ID 可以留空（由系统生成），非空时必须在课表中唯一
func ValidateTAInTimetable(t domain.Timetable, ta domain.TA, isNew bool) error {
	if !isNew && strings.TrimSpace(ta.ID) == "" {
		return errors.New("TA 的 ID 不能为空")
	}
	if ta.RequiredShifts < 0 {
		return errors.New("每周班次数不能为负数")
	}

	if isNew {
		if _, ok := t.TAByID(ta.ID); ok {
			return fmt.Errorf("TA %s 已存在", ta.ID)
		}
	}

	// 一个班次只能出现在一个偏好集合中
	seen := make(map[string]domain.Desirability)
	sets := []struct {
		label  domain.Desirability
		shifts []domain.Shift
	}{
		{domain.Desired, ta.Desired},
		{domain.Undesired, ta.Undesired},
		{domain.Unavailable, ta.Unavailable},
	}
	for _, set := range sets {
		for _, s := range set.shifts {
			if _, ok := t.ShiftByID(s.ID); !ok {
				return fmt.Errorf("班次 %s 不存在", s.ID)
			}
			if prev, ok := seen[s.ID]; ok && prev != set.label {
				return fmt.Errorf("班次 %s 同时出现在 %s 和 %s 中", s.ID, prev, set.label)
			}
			seen[s.ID] = set.label
		}
	}

	return nil
}

// ValidateTimetable 用于整体替换课表之前（上传的课表、命令行读取的文件）
func ValidateTimetable(t domain.Timetable) error {
	shiftIDs := make(map[string]bool)
	for i, s := range t.Shifts {
		if s.ID == "" {
			return fmt.Errorf("第 %d 个班次缺少 ID", i+1)
		}
		if shiftIDs[s.ID] {
			return fmt.Errorf("班次 ID %s 重复", s.ID)
		}
		shiftIDs[s.ID] = true

		if err := ValidateShift(s); err != nil {
			return fmt.Errorf("班次 %s: %w", s.ID, err)
		}
	}

	taIDs := make(map[string]bool)
	for _, ta := range t.TAs {
		if taIDs[ta.ID] {
			return fmt.Errorf("TA %s 重复", ta.ID)
		}
		taIDs[ta.ID] = true

		if err := ValidateTAInTimetable(t, ta, false); err != nil {
			return fmt.Errorf("TA %s: %w", ta.ID, err)
		}
	}

	return nil
}
