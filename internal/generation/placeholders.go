package generation

import (
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// WithPlaceholders 为每个班次生成 requiredTas 个未分配的名额，替换快照中原有的名额。
// 返回新的快照，不修改传入的课表。
func WithPlaceholders(t domain.Timetable, newID func() string) domain.Timetable {
	total := 0
	for _, s := range t.Shifts {
		if s.RequiredTAs > 0 {
			total += s.RequiredTAs
		}
	}

	res := t
	res.ShiftAssignments = make([]domain.ShiftAssignment, 0, total)
	for _, s := range t.Shifts {
		for i := 0; i < s.RequiredTAs; i++ {
			res.ShiftAssignments = append(res.ShiftAssignments, domain.ShiftAssignment{
				ID:    newID(),
				Shift: s,
			})
		}
	}
	res.Score = domain.Score{}
	res.SolverStatus = ""

	return res
}
