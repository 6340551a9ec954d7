package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
)

func (h *Handler) GetGenerationStatus(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	h.successResponse(w, r, "获取生成状态成功", s.Workflow.Status())
}

// StartGeneration 提交求解任务后立即返回，之后通过 GET 查询进度
func (h *Handler) StartGeneration(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	if len(s.Store.State().Shifts) == 0 {
		h.errorResponse(w, r, "课表中没有班次")
		return
	}

	status, err := s.Workflow.Start(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrAlreadyGenerating):
			h.errorResponse(w, r, err.Error())
		case errors.Is(err, generation.ErrSubmitFailed):
			// 求解服务拒绝或无法连接，失败原因已经记录在状态中
			h.logInternalServerError(r, err)
			h.writeJSON(w, r, http.StatusOK, Response{Success: false, Message: "提交排班任务失败", Data: status})
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "已开始生成排班", status)
}

func (h *Handler) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	if err := s.Workflow.Cancel(r.Context()); err != nil {
		switch {
		case errors.Is(err, generation.ErrNotGenerating):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "已取消生成排班", s.Workflow.Status())
}
