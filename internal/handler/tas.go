package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/utils"
)

// 请求中的偏好只给出班次 ID，dispatch 时 reducer 会换成课表中的班次
func shiftRefs(ids []string) []domain.Shift {
	shifts := make([]domain.Shift, 0, len(ids))
	for _, id := range ids {
		shifts = append(shifts, domain.Shift{ID: id})
	}
	return shifts
}

func (h *Handler) CreateTA(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	var req struct {
		ID             string   `json:"id"`
		Name           string   `json:"name" validate:"required"`
		RequiredShifts int      `json:"requiredShifts" validate:"gte=0"`
		IsGradStudent  bool     `json:"isGradStudent"`
		Desired        []string `json:"desired"`
		Undesired      []string `json:"undesired"`
		Unavailable    []string `json:"unavailable"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	ta := domain.TA{
		ID:             req.ID,
		Name:           req.Name,
		RequiredShifts: req.RequiredShifts,
		IsGradStudent:  req.IsGradStudent,
		Desired:        shiftRefs(req.Desired),
		Undesired:      shiftRefs(req.Undesired),
		Unavailable:    shiftRefs(req.Unavailable),
	}

	t, err := s.Store.DispatchIf(func(cur domain.Timetable) error {
		return utils.ValidateTAInTimetable(cur, ta, true)
	}, timetable.AddTA(ta))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "创建 TA 成功", t.TAs[len(t.TAs)-1])
}

func (h *Handler) UpdateTA(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	ta := r.Context().Value(TACtx).(domain.TA)

	var req struct {
		Name           *string   `json:"name" validate:"omitempty,min=1"`
		RequiredShifts *int      `json:"requiredShifts" validate:"omitempty,gte=0"`
		IsGradStudent  *bool     `json:"isGradStudent"`
		Desired        *[]string `json:"desired"`
		Undesired      *[]string `json:"undesired"`
		Unavailable    *[]string `json:"unavailable"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	if req.Name != nil {
		ta.Name = *req.Name
	}
	if req.RequiredShifts != nil {
		ta.RequiredShifts = *req.RequiredShifts
	}
	if req.IsGradStudent != nil {
		ta.IsGradStudent = *req.IsGradStudent
	}
	if req.Desired != nil {
		ta.Desired = shiftRefs(*req.Desired)
	}
	if req.Undesired != nil {
		ta.Undesired = shiftRefs(*req.Undesired)
	}
	if req.Unavailable != nil {
		ta.Unavailable = shiftRefs(*req.Unavailable)
	}

	t, err := s.Store.DispatchIf(func(cur domain.Timetable) error {
		return utils.ValidateTAInTimetable(cur, ta, false)
	}, timetable.UpdateTA(ta))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, _ := t.TAByID(ta.ID)
	h.successResponse(w, r, "更新 TA 成功", updated)
}

// DeleteTA 该 TA 已有的排班变为未分配
func (h *Handler) DeleteTA(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	ta := r.Context().Value(TACtx).(domain.TA)

	s.Store.Dispatch(timetable.RemoveTA(ta.ID))

	h.successResponse(w, r, "删除 TA 成功", nil)
}
