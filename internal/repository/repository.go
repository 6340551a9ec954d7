package repository

import (
	"context"
	"database/sql"
	"time"
)

type Repository struct {
	dbpool       *sql.DB
	queryTimeout time.Duration
}

func NewRepository(dbpool *sql.DB, queryTimeout time.Duration) *Repository {
	return &Repository{
		dbpool:       dbpool,
		queryTimeout: queryTimeout,
	}
}

// 每条查询都有自己的超时，同时跟随请求的取消
func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}
