package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=排班管理员 只读成员"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername), errors.Is(err, repository.ErrDuplicateEmail):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 初始密码通过邮件发送，用户已经创建，邮件发送失败只记录日志
	if err := h.mail.Publish(r.Context(), domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: user.FullName,
			Username: user.Username,
			Password: password,
		},
	}); err != nil {
		slog.Error("无法发送新用户邮件", "username", user.Username, "error", err)
		h.successResponse(w, r, "用户创建成功，但邮件发送失败，请重置该用户的密码", user)
		return
	}

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,min=1"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=排班管理员 只读成员"`
		IsActive *bool   `json:"isActive"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail), errors.Is(err, repository.ErrDuplicateUsername):
			h.badRequest(w, r, err)
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新用户信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 停用的账号不再保留课表会话
	if !user.IsActive {
		if err := h.sessions.Drop(r.Context(), user.ID); err != nil {
			slog.Warn("丢弃会话失败", "userID", user.ID, "error", err)
		}
	}

	h.successResponse(w, r, "更新用户信息成功", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.sessions.Drop(r.Context(), user.ID); err != nil {
		slog.Warn("丢弃会话失败", "userID", user.ID, "error", err)
	}

	h.successResponse(w, r, "删除用户成功", nil)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "修改密码失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
