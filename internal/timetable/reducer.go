package timetable

import (
	"strings"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// Reduce 是课表状态唯一的变更入口：(state, action) -> state
// 发生变化的集合总是新分配的切片，没有变化的集合沿用原来的底层数组，
// 调用方可以据此按集合判断是否发生了变化。任何 action 都不会失败。
func Reduce(state domain.Timetable, action Action) domain.Timetable {
	if action == nil {
		return state
	}
	return action.apply(state)
}

func (a addShift) apply(state domain.Timetable) domain.Timetable {
	shift := a.shift
	if strings.TrimSpace(shift.ID) == "" || indexOfShift(state.Shifts, shift.ID) >= 0 {
		shift.ID = a.fallbackID
	}

	next := state
	next.Shifts = appendFresh(state.Shifts, shift)
	return next
}

func (a addTA) apply(state domain.Timetable) domain.Timetable {
	ta := resolveRefs(a.ta, shiftIndex(state.Shifts))
	if strings.TrimSpace(ta.ID) == "" || indexOfTA(state.TAs, ta.ID) >= 0 {
		ta.ID = a.fallbackID
	}

	next := state
	next.TAs = appendFresh(state.TAs, ta)
	return next
}

// 删除班次时级联：同时从所有 TA 的偏好集合中移除该班次，并删除该班次的名额
func (a removeShift) apply(state domain.Timetable) domain.Timetable {
	if indexOfShift(state.Shifts, a.id) < 0 {
		return state
	}

	next := state
	next.Shifts = filter(state.Shifts, func(s domain.Shift) bool { return s.ID != a.id })

	if anyOf(state.TAs, func(ta domain.TA) bool { return ta.References(a.id) }) {
		next.TAs = make([]domain.TA, len(state.TAs))
		for i, ta := range state.TAs {
			if ta.References(a.id) {
				keep := func(s domain.Shift) bool { return s.ID != a.id }
				ta.Desired = filter(ta.Desired, keep)
				ta.Undesired = filter(ta.Undesired, keep)
				ta.Unavailable = filter(ta.Unavailable, keep)
			}
			next.TAs[i] = ta
		}
	}

	if anyOf(state.ShiftAssignments, func(sa domain.ShiftAssignment) bool { return sa.Shift.ID == a.id }) {
		next.ShiftAssignments = filter(state.ShiftAssignments, func(sa domain.ShiftAssignment) bool { return sa.Shift.ID != a.id })
	}

	return next
}

// 删除 TA 时级联：该 TA 占用的名额变为未分配
func (a removeTA) apply(state domain.Timetable) domain.Timetable {
	if indexOfTA(state.TAs, a.id) < 0 {
		return state
	}

	next := state
	next.TAs = filter(state.TAs, func(ta domain.TA) bool { return ta.ID != a.id })

	if anyOf(state.ShiftAssignments, func(sa domain.ShiftAssignment) bool { return assignedTo(sa, a.id) }) {
		next.ShiftAssignments = make([]domain.ShiftAssignment, len(state.ShiftAssignments))
		for i, sa := range state.ShiftAssignments {
			if assignedTo(sa, a.id) {
				sa.AssignedTA = nil
			}
			next.ShiftAssignments[i] = sa
		}
	}

	return next
}

// 找不到对应 ID 时静默忽略
func (a updateShift) apply(state domain.Timetable) domain.Timetable {
	idx := indexOfShift(state.Shifts, a.shift.ID)
	if idx < 0 {
		return state
	}

	next := state
	next.Shifts = replaceAt(state.Shifts, idx, a.shift)

	// 刷新偏好集合和名额中该班次的副本
	if anyOf(state.TAs, func(ta domain.TA) bool { return ta.References(a.shift.ID) }) {
		next.TAs = make([]domain.TA, len(state.TAs))
		for i, ta := range state.TAs {
			if ta.References(a.shift.ID) {
				ta.Desired = refreshShift(ta.Desired, a.shift)
				ta.Undesired = refreshShift(ta.Undesired, a.shift)
				ta.Unavailable = refreshShift(ta.Unavailable, a.shift)
			}
			next.TAs[i] = ta
		}
	}

	if anyOf(state.ShiftAssignments, func(sa domain.ShiftAssignment) bool { return sa.Shift.ID == a.shift.ID }) {
		next.ShiftAssignments = make([]domain.ShiftAssignment, len(state.ShiftAssignments))
		for i, sa := range state.ShiftAssignments {
			if sa.Shift.ID == a.shift.ID {
				sa.Shift = a.shift
			}
			next.ShiftAssignments[i] = sa
		}
	}

	return next
}

func (a updateTA) apply(state domain.Timetable) domain.Timetable {
	idx := indexOfTA(state.TAs, a.ta.ID)
	if idx < 0 {
		return state
	}

	ta := resolveRefs(a.ta, shiftIndex(state.Shifts))

	next := state
	next.TAs = replaceAt(state.TAs, idx, ta)

	if anyOf(state.ShiftAssignments, func(sa domain.ShiftAssignment) bool { return assignedTo(sa, ta.ID) }) {
		next.ShiftAssignments = make([]domain.ShiftAssignment, len(state.ShiftAssignments))
		for i, sa := range state.ShiftAssignments {
			if assignedTo(sa, ta.ID) {
				assigned := ta
				sa.AssignedTA = &assigned
			}
			next.ShiftAssignments[i] = sa
		}
	}

	return next
}

func (a setTimetable) apply(_ domain.Timetable) domain.Timetable {
	return a.timetable
}

func assignedTo(sa domain.ShiftAssignment, taID string) bool {
	return sa.AssignedTA != nil && sa.AssignedTA.ID == taID
}

func indexOfShift(shifts []domain.Shift, id string) int {
	for i, s := range shifts {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func indexOfTA(tas []domain.TA, id string) int {
	for i, ta := range tas {
		if ta.ID == id {
			return i
		}
	}
	return -1
}

func shiftIndex(shifts []domain.Shift) map[string]domain.Shift {
	m := make(map[string]domain.Shift, len(shifts))
	for _, s := range shifts {
		m[s.ID] = s
	}
	return m
}

// resolveRefs 将偏好集合中的班次替换为当前课表中的版本，丢弃不存在的班次
func resolveRefs(ta domain.TA, shifts map[string]domain.Shift) domain.TA {
	resolve := func(refs []domain.Shift) []domain.Shift {
		res := make([]domain.Shift, 0, len(refs))
		for _, ref := range refs {
			if s, ok := shifts[ref.ID]; ok {
				res = append(res, s)
			}
		}
		return res
	}

	ta.Desired = resolve(ta.Desired)
	ta.Undesired = resolve(ta.Undesired)
	ta.Unavailable = resolve(ta.Unavailable)
	return ta
}

func refreshShift(refs []domain.Shift, shift domain.Shift) []domain.Shift {
	res := make([]domain.Shift, len(refs))
	for i, ref := range refs {
		if ref.ID == shift.ID {
			ref = shift
		}
		res[i] = ref
	}
	return res
}

// appendFresh 总是分配新的底层数组，避免和旧状态共享
func appendFresh[T any](s []T, v T) []T {
	res := make([]T, len(s), len(s)+1)
	copy(res, s)
	return append(res, v)
}

func replaceAt[T any](s []T, idx int, v T) []T {
	res := make([]T, len(s))
	copy(res, s)
	res[idx] = v
	return res
}

func filter[T any](s []T, keep func(T) bool) []T {
	res := make([]T, 0, len(s))
	for _, v := range s {
		if keep(v) {
			res = append(res, v)
		}
	}
	return res
}

func anyOf[T any](s []T, pred func(T) bool) bool {
	for _, v := range s {
		if pred(v) {
			return true
		}
	}
	return false
}
