package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var series int
	var dir string
	var out string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 生成随机课表, 3: 从 CSV 导入课表)")
	flag.IntVar(&n, "n", 5, "要插入的用户数量或随机课表的 TA 数量")
	flag.IntVar(&series, "series", 8, "随机课表的班次系列数量")
	flag.StringVar(&dir, "dir", ".", "CSV 文件所在目录，需要包含 tas.csv 和 shifts.csv，availability.csv 可选")
	flag.StringVar(&out, "out", "", "课表输出文件，为空时输出到标准输出")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("无法读取 .env 文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}
		if err := insertRandomUsers(n); err != nil {
			slog.Error("插入用户失败", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case 2:
		if n <= 0 || series <= 0 {
			slog.Error("请输入合法的 TA 数量和班次系列数量")
			return
		}
		t := utils.GenerateRandomTimetable(series, n)
		if err := writeJSON(out, t); err != nil {
			slog.Error("无法输出课表", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("生成随机课表成功", slog.Int("shifts", len(t.Shifts)), slog.Int("tas", len(t.TAs)))
	case 3:
		res, err := importDir(dir)
		if err != nil {
			slog.Error("无法导入 CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, w := range res.Warnings {
			slog.Warn(w)
		}
		if err := writeJSON(out, res.Timetable); err != nil {
			slog.Error("无法输出课表", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("导入课表成功", slog.Int("shifts", len(res.Timetable.Shifts)), slog.Int("tas", len(res.Timetable.TAs)))
	default:
		slog.Error("未知操作", slog.Int("op", op))
	}
}

func insertRandomUsers(n int) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Seed.User.Password == "" {
		slog.Error("请设置 SEED_USER_PASSWORD")
		return nil
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		return err
	}

	repo := repository.NewRepository(dbpool, time.Duration(cfg.Database.QueryTimeout)*time.Second)

	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("无法生成随机用户", slog.String("error", err.Error()))
			continue
		}

		if err := repo.CreateUser(context.Background(), user); err != nil {
			slog.Error("无法插入用户", slog.String("username", user.Username), slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	slog.Info("插入用户成功", slog.Int("count", cnt))
	return nil
}

func importDir(dir string) (*seed.Result, error) {
	tas, err := os.Open(filepath.Join(dir, "tas.csv"))
	if err != nil {
		return nil, err
	}
	defer tas.Close()

	shifts, err := os.Open(filepath.Join(dir, "shifts.csv"))
	if err != nil {
		return nil, err
	}
	defer shifts.Close()

	var availability io.Reader
	f, err := os.Open(filepath.Join(dir, "availability.csv"))
	switch {
	case err == nil:
		defer f.Close()
		availability = f
	case os.IsNotExist(err):
		slog.Warn("没有找到 availability.csv，所有 TA 的偏好为空")
	default:
		return nil, err
	}

	return seed.Import(tas, shifts, availability)
}

func writeJSON(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
