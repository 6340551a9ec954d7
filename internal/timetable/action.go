package timetable

import (
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// Action 是一个封闭的集合，只能通过本包中的构造函数创建
type Action interface {
	apply(state domain.Timetable) domain.Timetable
}

// NewID 生成不透明的随机 ID，用于班次、TA、占位名额和课表本身
func NewID() string {
	return uuid.NewString()
}

type addShift struct {
	shift      domain.Shift
	fallbackID string
}

type addTA struct {
	ta         domain.TA
	fallbackID string
}

type removeShift struct {
	id string
}

type removeTA struct {
	id string
}

type updateShift struct {
	shift domain.Shift
}

type updateTA struct {
	ta domain.TA
}

type setTimetable struct {
	timetable domain.Timetable
}

// AddShift 在构造时预先生成备用 ID，当班次没有 ID 或 ID 已被占用时使用，保证 Reduce 是纯函数
func AddShift(shift domain.Shift) Action {
	return addShift{shift: shift, fallbackID: NewID()}
}

func AddTA(ta domain.TA) Action {
	return addTA{ta: ta, fallbackID: NewID()}
}

func RemoveShift(id string) Action {
	return removeShift{id: id}
}

func RemoveTA(id string) Action {
	return removeTA{id: id}
}

func UpdateShift(shift domain.Shift) Action {
	return updateShift{shift: shift}
}

func UpdateTA(ta domain.TA) Action {
	return updateTA{ta: ta}
}

func SetTimetable(timetable domain.Timetable) Action {
	return setTimetable{timetable: timetable}
}
