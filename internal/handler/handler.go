package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/session"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// DemoDataSource 由求解服务提供
type DemoDataSource interface {
	ListDemoData(ctx context.Context) ([]string, error)
	GetDemoData(ctx context.Context, name string) (domain.Timetable, error)
}

type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	users      UserRepository
	sessions   *session.Manager
	demoData   DemoDataSource
	mail       MailPublisher
	grid       timegrid.Grid

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, users UserRepository, sessions *session.Manager, demo DemoDataSource, mail MailPublisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	grid, err := cfg.Grid.Grid()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		users:      users,
		sessions:   sessions,
		demoData:   demo,
		mail:       mail,
		grid:       grid,

		Mux: chi.NewRouter(),
	}, nil
}

var schedulerOnly = []domain.Role{domain.RoleScheduler}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole(schedulerOnly)).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(schedulerOnly)).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(schedulerOnly)).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole(schedulerOnly)).Patch("/password", h.UpdateUserPassword)
			})
		})

		// 课表只保存在当前用户的会话中
		r.Route("/timetable", func(r chi.Router) {
			r.Use(h.session)
			r.Get("/", h.GetTimetable)
			r.With(h.preventEditWhileGenerating).Put("/", h.ReplaceTimetable)
			r.With(h.preventEditWhileGenerating).Post("/import", h.ImportTimetable)

			r.Route("/demo-data", func(r chi.Router) {
				r.Get("/", h.ListDemoData)
				r.With(h.preventEditWhileGenerating).Post("/{name}", h.LoadDemoData)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Use(h.preventEditWhileGenerating)
				r.Post("/", h.CreateShift)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.shift)
					r.Patch("/", h.UpdateShift)
					r.Delete("/", h.DeleteShift)
				})
			})

			r.Route("/tas", func(r chi.Router) {
				r.Use(h.preventEditWhileGenerating)
				r.Post("/", h.CreateTA)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.ta)
					r.Patch("/", h.UpdateTA)
					r.Delete("/", h.DeleteTA)
				})
			})

			// 求解服务是共享的，只有排班管理员可以提交和取消任务
			r.Route("/generation", func(r chi.Router) {
				r.Get("/", h.GetGenerationStatus)
				r.With(h.RequiredRole(schedulerOnly)).Post("/", h.StartGeneration)
				r.With(h.RequiredRole(schedulerOnly)).Delete("/", h.CancelGeneration)
			})

			r.Route("/views", func(r chi.Router) {
				r.Get("/grid", h.GetGridView)
				r.Get("/desirability", h.GetDesirabilityView)
				r.Get("/occurrences", h.GetOccurrences)
			})
		})
	})
}
