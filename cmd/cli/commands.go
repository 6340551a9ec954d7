package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/lock"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timegrid"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/utils"
)

const cliLockKey = "generation_lock_cli"

func generateCmd() *cobra.Command {
	var (
		file string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "提交课表给求解服务并等待排班结果",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTimetableFile(file)
			if err != nil {
				return err
			}
			if err := utils.ValidateTimetable(t); err != nil {
				return err
			}
			if len(t.Shifts) == 0 {
				return errors.New("课表中没有班次")
			}

			store := timetable.NewStore(t)
			wf := generation.New(generation.Config{
				Solver:  app.solver,
				Store:   store,
				Locker:  lock.NewLocalLocker(),
				Logger:  app.logger,
				Options: app.opts,
				LockKey: cliLockKey,
			})

			status, err := wf.Start(app.ctx)
			if err != nil {
				return err
			}
			app.logger.Info("排班任务已提交", slog.String("jobID", status.JobID))

			if err := waitWithProgress(app.ctx, wf); err != nil {
				// 被中断时通知求解服务停止任务
				ctx, cancel := context.WithTimeout(context.Background(), app.opts.CleanupTimeout)
				defer cancel()
				if closeErr := wf.Close(ctx); closeErr != nil {
					app.logger.Warn("停止排班失败", slog.String("error", closeErr.Error()))
				}
				return err
			}

			status = wf.Status()
			if status.State != generation.StateComplete {
				return fmt.Errorf("排班生成失败: %s", status.Error)
			}

			result := store.State()
			fmt.Fprintf(os.Stderr, "排班完成，共轮询 %d 次，分数 %s\n", status.Polls, result.Score)
			if err := printGrid(os.Stderr, app.grid, result); err != nil {
				return err
			}
			return writeTimetableFile(out, result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "课表文件（JSON 或 YAML，- 表示标准输入）")
	cmd.Flags().StringVarP(&out, "out", "o", "", "结果输出文件，为空时输出到标准输出")
	cmd.MarkFlagRequired("file")

	return cmd
}

func waitWithProgress(ctx context.Context, wf *generation.Workflow) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	done := make(chan error, 1)
	go func() {
		done <- wf.Wait(ctx)
	}()

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			status := wf.Status()
			app.logger.Info("排班生成中", slog.Int("polls", status.Polls), slog.String("score", status.Score.String()))
		}
	}
}

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "查看求解服务提供的示例数据",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出所有示例数据",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := app.solver.ListDemoData(app.ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	})

	var out string
	get := &cobra.Command{
		Use:   "get NAME",
		Short: "下载一份示例数据",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.solver.GetDemoData(app.ctx, args[0])
			if err != nil {
				return err
			}
			t = timetable.Reconcile(t)
			if t.ID == "" {
				t.ID = timetable.NewID()
			}
			return writeTimetableFile(out, t)
		},
	}
	get.Flags().StringVarP(&out, "out", "o", "", "输出文件，为空时输出到标准输出")
	cmd.AddCommand(get)

	return cmd
}

func importCmd() *cobra.Command {
	var (
		dir string
		out string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "从 CSV 文件导入课表",
		Long:  `目录中需要包含 tas.csv 和 shifts.csv，availability.csv 可选。`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := importDir(dir)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				app.logger.Warn(w)
			}
			return writeTimetableFile(out, res.Timetable)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "CSV 文件所在目录")
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件，为空时输出到标准输出")

	return cmd
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
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	return seed.Import(tas, shifts, availability)
}

func gridCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "按星期和时间列出课表中的班次",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTimetableFile(file)
			if err != nil {
				return err
			}
			return printGrid(os.Stdout, app.grid, t)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "课表文件")
	cmd.MarkFlagRequired("file")

	return cmd
}

func printGrid(w io.Writer, g timegrid.Grid, t domain.Timetable) error {
	blocks, err := g.Blocks(t)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "星期\t时间\t班次\t需要\t已分配\t空缺")
	for _, b := range blocks {
		name := b.Series
		if b.Alias != "" {
			name = b.Alias
		}
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%d\t%s\t%d\n",
			b.DayOfWeek,
			b.Start,
			b.End,
			name,
			b.RequiredTAs,
			strings.Join(b.AssignedTAs, ", "),
			b.Unfilled,
		)
	}
	return tw.Flush()
}

func desirabilityCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "desirability",
		Short: "列出每个 TA 对每个班次的偏好",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTimetableFile(file)
			if err != nil {
				return err
			}
			return printDesirability(os.Stdout, t)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "课表文件")
	cmd.MarkFlagRequired("file")

	return cmd
}

func printDesirability(w io.Writer, t domain.Timetable) error {
	idx := domain.NewDesirabilityIndex(t.TAs)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"TA"}
	for _, s := range t.Shifts {
		header = append(header, fmt.Sprintf("%s %s %s", s.Series, s.DayOfWeek, s.StartTime))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, ta := range t.TAs {
		row := []string{ta.Name}
		for _, s := range t.Shifts {
			row = append(row, string(idx.Lookup(ta.ID, s.ID)))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func occurrencesCmd() *cobra.Command {
	var (
		file  string
		from  string
		until string
	)

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "把每周重复的班次展开到具体日期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTimetableFile(file)
			if err != nil {
				return err
			}
			start, err := calendar.ParseDate(from, time.Local)
			if err != nil {
				return err
			}
			end, err := calendar.ParseDate(until, time.Local)
			if err != nil {
				return err
			}
			occurrences, err := calendar.Expand(t, start, end)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "日期\t星期\t时间\t班次\t已分配")
			for _, o := range occurrences {
				fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\n",
					o.Date,
					o.DayOfWeek,
					o.Start.Format("15:04"),
					o.End.Format("15:04"),
					o.Series,
					strings.Join(o.AssignedTAs, ", "),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "课表文件")
	cmd.Flags().StringVar(&from, "from", time.Now().Format(time.DateOnly), "开始日期 YYYY-MM-DD")
	cmd.Flags().StringVar(&until, "until", time.Now().AddDate(0, 0, 6).Format(time.DateOnly), "结束日期 YYYY-MM-DD")
	cmd.MarkFlagRequired("file")

	return cmd
}
