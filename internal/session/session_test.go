package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/lock"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
)

// 一直处于求解中的求解服务
type slowSolver struct{}

func (slowSolver) CreateJob(context.Context, domain.Timetable) (string, error) {
	return "job", nil
}

func (slowSolver) GetJob(ctx context.Context, _ string) (domain.Timetable, error) {
	<-ctx.Done()
	return domain.Timetable{}, ctx.Err()
}

func (slowSolver) StopJob(context.Context, string) error {
	return nil
}

func newManager() *Manager {
	return NewManager(Config{
		Solver:  slowSolver{},
		Locker:  lock.NewLocalLocker(),
		Options: generation.Options{PollInterval: time.Millisecond, MaxDuration: time.Minute},
	})
}

func TestGetReturnsSameSession(t *testing.T) {
	m := newManager()
	alice := &domain.User{ID: 1, Username: "alice"}
	bob := &domain.User{ID: 2, Username: "bob"}

	s1 := m.Get(alice)
	s2 := m.Get(alice)
	assert.Same(t, s1, s2)
	assert.NotSame(t, s1, m.Get(bob))
	assert.Equal(t, 2, m.Len())

	// 每个会话的课表互相独立
	s1.Store.Dispatch(timetable.AddShift(domain.Shift{Series: "CS1MD3"}))
	assert.Len(t, m.Get(alice).Store.State().Shifts, 1)
	assert.Empty(t, m.Get(bob).Store.State().Shifts)
}

func TestDropCancelsGeneration(t *testing.T) {
	m := newManager()
	alice := &domain.User{ID: 1, Username: "alice"}

	s := m.Get(alice)
	_, err := s.Workflow.Start(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Drop(ctx, alice.ID))

	assert.Equal(t, generation.StateCancelled, s.Workflow.Status().State)
	assert.Equal(t, 0, m.Len())
	assert.NotSame(t, s, m.Get(alice))

	assert.NoError(t, m.Drop(ctx, 99))
}

func TestClose(t *testing.T) {
	m := newManager()
	for i := int64(1); i <= 3; i++ {
		s := m.Get(&domain.User{ID: i})
		_, err := s.Workflow.Start(context.Background())
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Close(ctx))
	assert.Equal(t, 0, m.Len())
}
