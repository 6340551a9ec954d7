package timetable

import (
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// Empty 返回一个新的空课表
func Empty() domain.Timetable {
	return domain.Timetable{
		ID:               NewID(),
		Shifts:           []domain.Shift{},
		TAs:              []domain.TA{},
		ShiftAssignments: []domain.ShiftAssignment{},
	}
}

// Reconcile 规范化来自求解器或 demo 数据的课表，之后再通过 SetTimetable 整体替换本地状态：
//  1. 偏好集合和名额中的班次、TA 按 ID 指向课表中的版本
//  2. 引用了不存在班次的偏好和名额被丢弃，分配给不存在 TA 的名额变为未分配
//  3. 没有班次集合的响应从名额中还原班次集合
func Reconcile(t domain.Timetable) domain.Timetable {
	res := t

	if len(t.Shifts) == 0 && len(t.ShiftAssignments) > 0 {
		res.Shifts = shiftsFromAssignments(t.ShiftAssignments)
	} else {
		res.Shifts = append([]domain.Shift{}, t.Shifts...)
	}
	shifts := shiftIndex(res.Shifts)

	res.TAs = make([]domain.TA, len(t.TAs))
	tas := make(map[string]domain.TA, len(t.TAs))
	for i, ta := range t.TAs {
		res.TAs[i] = resolveRefs(ta, shifts)
		tas[ta.ID] = res.TAs[i]
	}

	res.ShiftAssignments = make([]domain.ShiftAssignment, 0, len(t.ShiftAssignments))
	for _, sa := range t.ShiftAssignments {
		shift, ok := shifts[sa.Shift.ID]
		if !ok {
			continue
		}
		sa.Shift = shift

		if sa.AssignedTA != nil {
			if ta, ok := tas[sa.AssignedTA.ID]; ok {
				sa.AssignedTA = &ta
			} else {
				sa.AssignedTA = nil
			}
		}
		res.ShiftAssignments = append(res.ShiftAssignments, sa)
	}

	return res
}

func shiftsFromAssignments(assignments []domain.ShiftAssignment) []domain.Shift {
	seen := make(map[string]bool)
	shifts := make([]domain.Shift, 0)
	for _, sa := range assignments {
		if sa.Shift.ID == "" || seen[sa.Shift.ID] {
			continue
		}
		seen[sa.Shift.ID] = true
		shifts = append(shifts, sa.Shift)
	}
	return shifts
}
