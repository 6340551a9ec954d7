package domain

type Desirability string

const (
	Desired     Desirability = "Desired"
	Undesired   Desirability = "Undesired"
	Unavailable Desirability = "Unavailable"
	Neutral     Desirability = "Neutral"
)

// DesirabilityFor 按班次 ID 判断 TA 对该班次的偏好
// 同一个班次出现在多个集合中时，优先级为 Desired > Undesired > Unavailable
func DesirabilityFor(ta TA, shift Shift) Desirability {
	switch {
	case containsShift(ta.Desired, shift.ID):
		return Desired
	case containsShift(ta.Undesired, shift.ID):
		return Undesired
	case containsShift(ta.Unavailable, shift.ID):
		return Unavailable
	default:
		return Neutral
	}
}

// DesirabilityIndex 预先建立 taID -> shiftID -> 偏好 的索引，用于整张 TA x 班次 表格
type DesirabilityIndex struct {
	labels map[string]map[string]Desirability
}

func NewDesirabilityIndex(tas []TA) *DesirabilityIndex {
	idx := &DesirabilityIndex{
		labels: make(map[string]map[string]Desirability, len(tas)),
	}

	for _, ta := range tas {
		m := make(map[string]Desirability)
		// 低优先级先写入，高优先级覆盖
		for _, s := range ta.Unavailable {
			m[s.ID] = Unavailable
		}
		for _, s := range ta.Undesired {
			m[s.ID] = Undesired
		}
		for _, s := range ta.Desired {
			m[s.ID] = Desired
		}
		idx.labels[ta.ID] = m
	}

	return idx
}

func (idx *DesirabilityIndex) Lookup(taID, shiftID string) Desirability {
	if label, ok := idx.labels[taID][shiftID]; ok {
		return label
	}
	return Neutral
}
