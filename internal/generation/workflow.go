package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/solver"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
)

type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

var (
	ErrAlreadyGenerating = errors.New("已有排班正在生成")
	ErrNotGenerating     = errors.New("当前没有正在生成的排班")
	ErrPollLimit         = errors.New("轮询次数超过上限")
	ErrTimeout           = errors.New("排班生成超时")
	ErrSubmitFailed      = errors.New("提交排班任务失败")
)

type SolverClient interface {
	CreateJob(ctx context.Context, timetable domain.Timetable) (string, error)
	GetJob(ctx context.Context, jobID string) (domain.Timetable, error)
	StopJob(ctx context.Context, jobID string) error
}

type StateStore interface {
	State() domain.Timetable
	Dispatch(action timetable.Action) domain.Timetable
}

// Locker 保证同一个课表在多个 API 实例之间也只有一个排班在生成
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, result Result) error
}

type Status struct {
	State        State               `json:"state"`
	JobID        string              `json:"jobId,omitempty"`
	Polls        int                 `json:"polls"`
	SolverStatus domain.SolverStatus `json:"solverStatus,omitempty"`
	Score        domain.Score        `json:"score"`
	Error        string              `json:"error,omitempty"`
	StartedAt    *time.Time          `json:"startedAt,omitempty"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
}

type Result struct {
	Status    Status
	Timetable domain.Timetable
}

type Config struct {
	Solver   SolverClient
	Store    StateStore
	Locker   Locker   // 可以为空，此时只在进程内互斥
	Notifier Notifier // 可以为空
	Logger   *slog.Logger
	Options  Options
	LockKey  string
}

type Workflow struct {
	solver   SolverClient
	store    StateStore
	locker   Locker
	notifier Notifier
	logger   *slog.Logger
	opts     Options
	lockKey  string

	mu     sync.Mutex
	status Status
	run    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config) *Workflow {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Workflow{
		solver:   cfg.Solver,
		store:    cfg.Store,
		locker:   cfg.Locker,
		notifier: cfg.Notifier,
		logger:   logger,
		opts:     cfg.Options.withDefaults(),
		lockKey:  cfg.LockKey,
		status:   Status{State: StateIdle},
	}
}

func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.status
}

// Start 生成占位名额并提交求解任务，成功后在后台轮询，直到求解结束、失败或被取消
func (w *Workflow) Start(ctx context.Context) (Status, error) {
	w.mu.Lock()
	if w.status.State == StateGenerating {
		status := w.status
		w.mu.Unlock()
		return status, ErrAlreadyGenerating
	}

	prev := w.status
	prevDone := w.done
	now := time.Now()
	w.run++
	run := w.run
	w.status = Status{State: StateGenerating, StartedAt: &now}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if w.opts.MaxDuration > 0 {
		runCtx, cancel = context.WithTimeout(context.Background(), w.opts.MaxDuration)
	} else {
		runCtx, cancel = context.WithCancel(context.Background())
	}
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	abort := func() {
		w.mu.Lock()
		if w.run == run {
			w.status = prev
		}
		w.mu.Unlock()
		cancel()
		close(done)
	}

	// 上一次被取消的生成可能还没有释放锁
	if prevDone != nil {
		select {
		case <-prevDone:
		case <-ctx.Done():
			abort()
			return prev, ctx.Err()
		}
	}

	// 获取分布式锁
	if w.locker != nil {
		ok, err := w.locker.Acquire(ctx, w.lockKey, w.lockTTL())
		if err != nil {
			abort()
			return prev, fmt.Errorf("获取排班锁失败: %w", err)
		}
		if !ok {
			abort()
			return prev, ErrAlreadyGenerating
		}
	}

	snapshot := WithPlaceholders(w.store.State(), timetable.NewID)
	w.logger.Info("提交排班任务", slog.Int("shifts", len(snapshot.Shifts)), slog.Int("tas", len(snapshot.TAs)), slog.Int("placeholders", len(snapshot.ShiftAssignments)))

	// 提交任务不是幂等的，不重试
	jobID, err := w.solver.CreateJob(runCtx, snapshot)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSubmitFailed, err)
		w.finish(runCtx, run, err)
		w.cleanup(run, cancel, done)
		return w.Status(), err
	}

	w.mu.Lock()
	if w.run != run || w.status.State != StateGenerating {
		// 提交期间已经被取消，通知求解服务停止刚创建的任务
		w.mu.Unlock()
		w.stopJob(jobID)
		w.cleanup(run, cancel, done)
		return w.Status(), nil
	}
	w.status.JobID = jobID
	status := w.status
	w.mu.Unlock()

	w.logger.Info("排班任务已提交", slog.String("jobID", jobID))

	go func() {
		defer w.cleanup(run, cancel, done)

		err := w.poll(runCtx, run, jobID)
		w.finish(runCtx, run, err)
	}()

	return status, nil
}

// Cancel 在下一次轮询之前停止后台轮询，并请求求解服务提前结束任务
func (w *Workflow) Cancel(ctx context.Context) error {
	w.mu.Lock()
	if w.status.State != StateGenerating {
		w.mu.Unlock()
		return ErrNotGenerating
	}

	w.cancel()
	now := time.Now()
	w.status.State = StateCancelled
	w.status.FinishedAt = &now
	jobID := w.status.JobID
	w.mu.Unlock()

	w.logger.Info("排班生成已取消", slog.String("jobID", jobID))

	if jobID != "" {
		if err := w.solver.StopJob(ctx, jobID); err != nil {
			w.logger.Warn("通知求解服务停止任务失败", slog.String("jobID", jobID), slog.String("error", err.Error()))
		}
	}

	return nil
}

// Wait 阻塞到当前这一次生成的后台轮询退出
func (w *Workflow) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 取消正在进行的生成并等待后台轮询退出
func (w *Workflow) Close(ctx context.Context) error {
	if err := w.Cancel(ctx); err != nil && !errors.Is(err, ErrNotGenerating) {
		return err
	}
	return w.Wait(ctx)
}

func (w *Workflow) poll(ctx context.Context, run uint64, jobID string) error {
	if err := sleep(ctx, w.opts.InitialDelay); err != nil {
		return err
	}

	for polls := 1; ; polls++ {
		if w.opts.MaxPolls > 0 && polls > w.opts.MaxPolls {
			return ErrPollLimit
		}
		if polls > 1 {
			if err := sleep(ctx, w.opts.PollInterval); err != nil {
				return err
			}
		}

		result, err := w.fetch(ctx, jobID)
		if err != nil {
			return fmt.Errorf("查询排班任务失败: %w", err)
		}

		// 在持有锁的情况下写入状态，保证 Cancel 返回之后不会再有 SetTimetable
		w.mu.Lock()
		if w.run != run || w.status.State != StateGenerating {
			w.mu.Unlock()
			return context.Canceled
		}
		w.store.Dispatch(timetable.SetTimetable(timetable.Reconcile(result)))
		w.status.Polls = polls
		w.status.SolverStatus = result.SolverStatus
		w.status.Score = result.Score
		w.mu.Unlock()

		w.logger.Debug("轮询排班任务", slog.String("jobID", jobID), slog.Int("polls", polls), slog.String("solverStatus", string(result.SolverStatus)), slog.String("score", result.Score.String()))

		if w.opts.Termination.IsTerminal(result) {
			return nil
		}
	}
}

// fetch 对单次查询做有限次数的指数退避重试，任务不存在时不重试
func (w *Workflow) fetch(ctx context.Context, jobID string) (domain.Timetable, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.RetryInitialInterval
	b.MaxElapsedTime = 0

	var result domain.Timetable
	err := backoff.RetryNotify(func() error {
		t, err := w.solver.GetJob(ctx, jobID)
		if err != nil {
			if errors.Is(err, solver.ErrJobNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = t
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.opts.RetryMax)), ctx), func(err error, next time.Duration) {
		w.logger.Warn("查询排班任务失败，准备重试", slog.String("jobID", jobID), slog.Duration("next", next), slog.String("error", err.Error()))
	})

	return result, err
}

// finish 只有当前这一次生成仍处于 Generating 时才会改变状态
func (w *Workflow) finish(ctx context.Context, run uint64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.run != run || w.status.State != StateGenerating {
		return
	}

	now := time.Now()
	w.status.FinishedAt = &now

	switch {
	case err == nil:
		w.status.State = StateComplete
		w.logger.Info("排班生成完成", slog.String("jobID", w.status.JobID), slog.Int("polls", w.status.Polls), slog.String("score", w.status.Score.String()))
		return
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w: 超过 %s", ErrTimeout, w.opts.MaxDuration)
	case errors.Is(err, context.Canceled):
		w.status.State = StateCancelled
		return
	}

	w.status.State = StateFailed
	w.status.Error = err.Error()
	w.logger.Error("排班生成失败", slog.String("jobID", w.status.JobID), slog.Int("polls", w.status.Polls), slog.String("error", err.Error()))
}

// cleanup 由每一次生成的所有者调用一次：释放锁、发送通知、唤醒 Wait
func (w *Workflow) cleanup(run uint64, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	cancel()

	ctx, stop := context.WithTimeout(context.Background(), w.opts.CleanupTimeout)
	defer stop()

	if w.locker != nil {
		if err := w.locker.Release(ctx, w.lockKey); err != nil {
			w.logger.Warn("释放排班锁失败", slog.String("key", w.lockKey), slog.String("error", err.Error()))
		}
	}

	w.mu.Lock()
	status := w.status
	current := w.run == run
	w.mu.Unlock()

	if !current || w.notifier == nil {
		return
	}
	if status.State != StateComplete && status.State != StateFailed {
		return
	}

	if err := w.notifier.Notify(ctx, Result{Status: status, Timetable: w.store.State()}); err != nil {
		w.logger.Warn("发送排班结果通知失败", slog.String("jobID", status.JobID), slog.String("error", err.Error()))
	}
}

func (w *Workflow) stopJob(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.CleanupTimeout)
	defer cancel()

	if err := w.solver.StopJob(ctx, jobID); err != nil {
		w.logger.Warn("通知求解服务停止任务失败", slog.String("jobID", jobID), slog.String("error", err.Error()))
	}
}

func (w *Workflow) lockTTL() time.Duration {
	if w.opts.MaxDuration > 0 {
		return w.opts.MaxDuration + w.opts.CleanupTimeout
	}
	return time.Hour
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
