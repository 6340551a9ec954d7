package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/utils"
)

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	var req struct {
		Series      string           `json:"series" validate:"required"`
		DayOfWeek   domain.DayOfWeek `json:"dayOfWeek" validate:"required"`
		StartTime   string           `json:"startTime" validate:"required"`
		EndTime     string           `json:"endTime" validate:"required"`
		RequiredTAs int              `json:"requiredTas" validate:"gte=0"`
		Alias       string           `json:"alias"`
		ShiftDate   string           `json:"shiftDate"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	shift := domain.Shift{
		Series:      req.Series,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		RequiredTAs: req.RequiredTAs,
		Alias:       req.Alias,
		ShiftDate:   req.ShiftDate,
	}

	t, err := s.Store.DispatchIf(func(cur domain.Timetable) error {
		return utils.ValidateShiftInTimetable(cur, shift)
	}, timetable.AddShift(shift))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次成功", t.Shifts[len(t.Shifts)-1])
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	shift := r.Context().Value(ShiftCtx).(domain.Shift)

	var req struct {
		Series      *string           `json:"series" validate:"omitempty,min=1"`
		DayOfWeek   *domain.DayOfWeek `json:"dayOfWeek"`
		StartTime   *string           `json:"startTime"`
		EndTime     *string           `json:"endTime"`
		RequiredTAs *int              `json:"requiredTas" validate:"omitempty,gte=0"`
		Alias       *string           `json:"alias"`
		ShiftDate   *string           `json:"shiftDate"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	if req.Series != nil {
		shift.Series = *req.Series
	}
	if req.DayOfWeek != nil {
		shift.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.RequiredTAs != nil {
		shift.RequiredTAs = *req.RequiredTAs
	}
	if req.Alias != nil {
		shift.Alias = *req.Alias
	}
	if req.ShiftDate != nil {
		shift.ShiftDate = *req.ShiftDate
	}

	if _, err := s.Store.DispatchIf(func(cur domain.Timetable) error {
		return utils.ValidateShiftInTimetable(cur, shift)
	}, timetable.UpdateShift(shift)); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "更新班次成功", shift)
}

// DeleteShift 同时从 TA 的偏好和已有的排班中移除该班次
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	shift := r.Context().Value(ShiftCtx).(domain.Shift)

	s.Store.Dispatch(timetable.RemoveShift(shift.ID))

	h.successResponse(w, r, "删除班次成功", nil)
}
