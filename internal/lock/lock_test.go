package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	ok, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Acquire(ctx, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Release(ctx, "k"))
	ok, err = l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerExpires(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	ok, err := l.Acquire(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	ok, err = l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerationKey(t *testing.T) {
	assert.Equal(t, "generation_lock_42", GenerationKey(42))
}

// 需要本地的 redis，设置 TEST_REDIS_ADDR 后运行
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("未设置 TEST_REDIS_ADDR")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	key := "generation_lock_test"
	require.NoError(t, rdb.Del(ctx, key).Err())

	a := NewRedisLocker(rdb)
	b := NewRedisLocker(rdb)

	ok, err := a.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 没有持有锁的实例释放锁不会删除别人的锁
	require.NoError(t, b.Release(ctx, key))
	exists, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	require.NoError(t, a.Release(ctx, key))
	ok, err = b.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Release(ctx, key))
}
