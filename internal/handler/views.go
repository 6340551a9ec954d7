package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

func (h *Handler) GetGridView(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	view, err := h.grid.BuildView(s.Store.State())
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "获取日历视图成功", view)
}

type desirabilityRow struct {
	TAID   string                         `json:"taId"`
	Name   string                         `json:"name"`
	Shifts map[string]domain.Desirability `json:"shifts"`
}

// GetDesirabilityView 返回每个 TA 对每个班次的偏好
func (h *Handler) GetDesirabilityView(w http.ResponseWriter, r *http.Request) {
	t := currentSession(r).Store.State()
	idx := domain.NewDesirabilityIndex(t.TAs)

	rows := make([]desirabilityRow, 0, len(t.TAs))
	for _, ta := range t.TAs {
		row := desirabilityRow{
			TAID:   ta.ID,
			Name:   ta.Name,
			Shifts: make(map[string]domain.Desirability, len(t.Shifts)),
		}
		for _, shift := range t.Shifts {
			row.Shifts[shift.ID] = idx.Lookup(ta.ID, shift.ID)
		}
		rows = append(rows, row)
	}

	h.successResponse(w, r, "获取偏好矩阵成功", rows)
}

func (h *Handler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	t := currentSession(r).Store.State()

	query := r.URL.Query()
	if query.Get("from") == "" || query.Get("until") == "" {
		h.errorResponse(w, r, "缺少 from 或 until 参数")
		return
	}

	from, err := calendar.ParseDate(query.Get("from"), time.Local)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	until, err := calendar.ParseDate(query.Get("until"), time.Local)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	occurrences, err := calendar.Expand(t, from, until)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrInvalidRange), errors.Is(err, calendar.ErrRangeTooLarge):
			h.errorResponse(w, r, err.Error())
		default:
			h.badRequest(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班日程成功", occurrences)
}
