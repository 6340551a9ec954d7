package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 只有持有者才能删除锁，避免锁过期后误删其他实例获取的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 使用 SET NX 加过期时间实现的锁，在多个 API 实例之间互斥
type RedisLocker struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: client,
		tokens: make(map[string]string),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取锁 %s 失败: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	return true, nil
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("释放锁 %s 失败: %w", key, err)
	}
	return nil
}

// LocalLocker 是进程内的锁，用于命令行客户端和测试
type LocalLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		expires: make(map[string]time.Time),
	}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.expires[key] = now.Add(ttl)

	return true, nil
}

func (l *LocalLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.expires, key)
	return nil
}

// GenerationKey 每个管理员的课表对应一把锁
func GenerationKey(userID int64) string {
	return fmt.Sprintf("generation_lock_%d", userID)
}
