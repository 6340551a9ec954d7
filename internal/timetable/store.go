package timetable

import (
	"sync"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// Store 持有一个会话的课表状态，所有修改都必须经过 Dispatch，并且按顺序执行
// State 返回的快照与 Store 共享切片，调用方不能原地修改
type Store struct {
	mu      sync.RWMutex
	state   domain.Timetable
	version uint64
}

func NewStore(initial domain.Timetable) *Store {
	return &Store{
		state: initial,
	}
}

func (s *Store) Dispatch(action Action) domain.Timetable {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, action)
	s.version++

	return s.state
}

// DispatchIf 在同一把锁内先检查当前状态再修改，检查失败时状态不变
func (s *Store) DispatchIf(check func(domain.Timetable) error, action Action) (domain.Timetable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := check(s.state); err != nil {
		return s.state, err
	}

	s.state = Reduce(s.state, action)
	s.version++

	return s.state, nil
}

func (s *Store) State() domain.Timetable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Version 每次 Dispatch 后加一
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}
