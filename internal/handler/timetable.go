package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/session"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/solver"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/utils"
)

type timetableResponse struct {
	Timetable domain.Timetable `json:"timetable"`
	Version   uint64           `json:"version"`
}

func currentSession(r *http.Request) *session.Session {
	return r.Context().Value(SessionCtx).(*session.Session)
}

func snapshot(s *session.Session, t domain.Timetable) timetableResponse {
	return timetableResponse{Timetable: t, Version: s.Store.Version()}
}

// replaceWith 规范化外部来的课表后整体替换会话中的课表
func replaceWith(s *session.Session, t domain.Timetable, validate bool) (domain.Timetable, error) {
	t = timetable.Reconcile(t)
	if t.ID == "" {
		t.ID = timetable.NewID()
	}
	if validate {
		if err := utils.ValidateTimetable(t); err != nil {
			return domain.Timetable{}, err
		}
	}
	return s.Store.Dispatch(timetable.SetTimetable(t)), nil
}

func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	h.successResponse(w, r, "获取课表成功", snapshot(s, s.Store.State()))
}

func (h *Handler) ReplaceTimetable(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	var req domain.Timetable
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t, err := replaceWith(s, req, true)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "替换课表成功", snapshot(s, t))
}

func (h *Handler) ImportTimetable(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.Server.MaxUploadSize); err != nil {
		h.errorResponse(w, r, "无法解析上传的文件")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := make(map[string]io.Reader)
	for _, field := range []string{"tas", "shifts", "availability"} {
		f, _, err := r.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) && field == "availability" {
				continue
			}
			if errors.Is(err, http.ErrMissingFile) {
				h.errorResponse(w, r, "缺少文件: "+field)
				return
			}
			h.internalServerError(w, r, err)
			return
		}
		defer func(f multipart.File) { f.Close() }(f)
		files[field] = f
	}

	result, err := seed.Import(files["tas"], files["shifts"], files["availability"])
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	t, err := replaceWith(s, result.Timetable, true)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "导入课表成功", struct {
		timetableResponse
		Warnings []string `json:"warnings"`
	}{snapshot(s, t), result.Warnings})
}

func (h *Handler) ListDemoData(w http.ResponseWriter, r *http.Request) {
	names, err := h.demoData.ListDemoData(r.Context())
	if err != nil {
		h.solverError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取示例数据列表成功", names)
}

func (h *Handler) LoadDemoData(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	demo, err := h.demoData.GetDemoData(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.solverError(w, r, err)
		return
	}

	t, err := replaceWith(s, demo, false)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "加载示例数据成功", snapshot(s, t))
}

// solverError 把求解服务的错误转换成提示，服务不可用不算本服务的内部错误
func (h *Handler) solverError(w http.ResponseWriter, r *http.Request, err error) {
	var statusErr *solver.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		h.errorResponse(w, r, "示例数据不存在")
	default:
		h.logInternalServerError(r, err)
		h.errorResponse(w, r, "求解服务暂时不可用")
	}
}
