package domain

type TA struct {
	ID             string  `json:"id"` // 管理员录入的账号（如 macid），在当前 TA 中唯一
	Name           string  `json:"name"`
	RequiredShifts int     `json:"requiredShifts"`
	IsGradStudent  bool    `json:"isGradStudent"`
	Desired        []Shift `json:"desired"`
	Undesired      []Shift `json:"undesired"`
	Unavailable    []Shift `json:"unavailable"`
}

func containsShift(shifts []Shift, shiftID string) bool {
	for _, s := range shifts {
		if s.ID == shiftID {
			return true
		}
	}
	return false
}

// References 判断 TA 的任意一个偏好集合中是否引用了该班次
func (ta TA) References(shiftID string) bool {
	return containsShift(ta.Desired, shiftID) || containsShift(ta.Undesired, shiftID) || containsShift(ta.Unavailable, shiftID)
}
