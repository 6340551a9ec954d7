package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/solver"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
)

// App 保存所有子命令共享的依赖
type App struct {
	cfg    *config.CLIConfig
	solver *solver.Client
	opts   generation.Options
	grid   timegrid.Grid
	logger *slog.Logger
	ctx    context.Context
}

var (
	envFile string
	verbose bool
	app     *App
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "roster",
		Short:         "TA 排班命令行工具",
		Long:          `在本地编辑课表文件，调用求解服务生成排班，并以表格形式查看结果。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "环境变量文件")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(gridCmd())
	rootCmd.AddCommand(desirabilityCmd())
	rootCmd.AddCommand(occurrencesCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func initApp(ctx context.Context) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("无法读取 %s: %w", envFile, err)
	}
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return fmt.Errorf("无法加载配置: %w", err)
	}
	opts, err := cfg.Solver.GenerationOptions()
	if err != nil {
		return err
	}
	grid, err := cfg.Grid.Grid()
	if err != nil {
		return err
	}

	app = &App{
		cfg:    cfg,
		solver: solver.NewClient(cfg.Solver.BaseURL, cfg.Solver.Timeout()),
		opts:   opts,
		grid:   grid,
		logger: logger,
		ctx:    ctx,
	}
	logger.Debug("配置加载完成", slog.String("solver", cfg.Solver.BaseURL))

	return nil
}
