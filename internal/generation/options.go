package generation

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// TerminationPolicy 决定轮询在什么时候结束
type TerminationPolicy string

const (
	// 求解服务报告 NOT_SOLVING
	TerminateOnStatus TerminationPolicy = "status"
	// 旧协议的做法：硬约束分和软约束分同时不为 0。最优解的分数恰好为 0 时永远不会结束，只用于兼容旧的求解服务
	TerminateOnScore TerminationPolicy = "score"
)

func ParseTerminationPolicy(s string) (TerminationPolicy, error) {
	switch TerminationPolicy(s) {
	case TerminateOnStatus, "":
		return TerminateOnStatus, nil
	case TerminateOnScore:
		return TerminateOnScore, nil
	default:
		return "", fmt.Errorf("未知的轮询结束条件: %q", s)
	}
}

func (p TerminationPolicy) IsTerminal(t domain.Timetable) bool {
	if p == TerminateOnScore {
		return t.Score.HardScore != 0 && t.Score.SoftScore != 0
	}
	return t.SolverStatus.IsTerminal()
}

type Options struct {
	InitialDelay         time.Duration
	PollInterval         time.Duration
	MaxPolls             int           // 0 表示不限制
	MaxDuration          time.Duration // 0 表示不限制
	RetryMax             int
	RetryInitialInterval time.Duration
	Termination          TerminationPolicy
	CleanupTimeout       time.Duration
}

func DefaultOptions() Options {
	return Options{
		InitialDelay:         5 * time.Second,
		PollInterval:         2 * time.Second,
		MaxPolls:             300,
		MaxDuration:          15 * time.Minute,
		RetryMax:             3,
		RetryInitialInterval: 500 * time.Millisecond,
		Termination:          TerminateOnStatus,
		CleanupTimeout:       5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.Termination == "" {
		o.Termination = TerminateOnStatus
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = 500 * time.Millisecond
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if o.CleanupTimeout <= 0 {
		o.CleanupTimeout = 5 * time.Second
	}
	return o
}
