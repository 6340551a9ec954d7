package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/lock"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/mailqueue"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
)

// Session 是一个管理员的工作区：课表状态只保存在内存中，登出或服务重启后丢失
type Session struct {
	User     *domain.User
	Store    *timetable.Store
	Workflow *generation.Workflow
}

type Config struct {
	Solver    generation.SolverClient
	Locker    generation.Locker
	Publisher *mailqueue.Publisher // 为空时不发送邮件
	Options   generation.Options
	Logger    *slog.Logger
}

type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Manager{
		cfg:      cfg,
		sessions: make(map[int64]*Session),
	}
}

// Get 返回用户的会话，不存在时创建一个空课表
func (m *Manager) Get(user *domain.User) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[user.ID]; ok {
		return s
	}

	store := timetable.NewStore(timetable.Empty())
	wfCfg := generation.Config{
		Solver:  m.cfg.Solver,
		Store:   store,
		Locker:  m.cfg.Locker,
		Logger:  m.cfg.Logger.With(slog.String("username", user.Username)),
		Options: m.cfg.Options,
		LockKey: lock.GenerationKey(user.ID),
	}
	if m.cfg.Publisher != nil {
		wfCfg.Notifier = m.cfg.Publisher.NotifierFor(user)
	}

	s := &Session{
		User:     user,
		Store:    store,
		Workflow: generation.New(wfCfg),
	}
	m.sessions[user.ID] = s

	return s
}

// Drop 取消该用户正在进行的生成并丢弃会话
func (m *Manager) Drop(ctx context.Context, userID int64) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Workflow.Close(ctx)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Workflow.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
