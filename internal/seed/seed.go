// Package seed 从 CSV 文件导入 TA、班次和空闲时间，组装成一个课表
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
)

var (
	taColumns           = []string{"macid", "name", "req_shift_per_week", "type"}
	shiftColumns        = []string{"name", "series", "day_of_week", "date", "start_time", "duration", "req_ta_per_shift"}
	availabilityColumns = []string{"macid", "shift_series", "availability"}
)

const (
	AvailabilityAvailable   = "Available"
	AvailabilityUndesired   = "Undesired"
	AvailabilityUnavailable = "Unavailable"
)

type Result struct {
	Timetable domain.Timetable `json:"timetable"`
	Warnings  []string         `json:"warnings"`
}

// Import 读取三个 CSV 文件，availability 可以为空。
// 数据格式错误时返回错误；不影响导入的问题（例如找不到某个 TA 的空闲时间）放在 Warnings 中。
func Import(tas, shifts, availability io.Reader) (*Result, error) {
	taList, err := ReadTAs(tas)
	if err != nil {
		return nil, err
	}
	shiftList, err := ReadShifts(shifts)
	if err != nil {
		return nil, err
	}

	t := timetable.Empty()
	t.Shifts = shiftList
	res := &Result{Warnings: make([]string, 0)}

	if availability == nil {
		t.TAs = taList
		res.Timetable = t
		return res, nil
	}

	rows, err := ReadAvailability(availability)
	if err != nil {
		return nil, err
	}

	// 按 series 分组，同一个 series 的所有班次使用同一个空闲状态
	bySeries := make(map[string][]domain.Shift)
	for _, s := range shiftList {
		bySeries[s.Series] = append(bySeries[s.Series], s)
	}

	byTA := make(map[string][]AvailabilityRow)
	for _, row := range rows {
		if !slices.ContainsFunc(taList, func(ta domain.TA) bool { return ta.ID == row.MacID }) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("空闲时间中的 TA %s 不存在", row.MacID))
			continue
		}
		byTA[row.MacID] = append(byTA[row.MacID], row)
	}

	for i, ta := range taList {
		taRows, ok := byTA[ta.ID]
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("没有找到 TA %s（%s）的空闲时间", ta.ID, ta.Name))
			continue
		}

		for _, row := range taRows {
			group, ok := bySeries[row.Series]
			if !ok {
				res.Warnings = append(res.Warnings, fmt.Sprintf("TA %s 的空闲时间中的班次系列 %s 不存在", ta.ID, row.Series))
				continue
			}

			switch row.Availability {
			case AvailabilityAvailable:
				ta.Desired = append(ta.Desired, group...)
			case AvailabilityUndesired:
				ta.Undesired = append(ta.Undesired, group...)
			case AvailabilityUnavailable:
				ta.Unavailable = append(ta.Unavailable, group...)
			default:
				res.Warnings = append(res.Warnings, fmt.Sprintf("TA %s 的班次系列 %s 的空闲状态 %q 无法识别", ta.ID, row.Series, row.Availability))
			}
		}

		if available := len(ta.Desired) + len(ta.Undesired); available < ta.RequiredShifts {
			res.Warnings = append(res.Warnings, fmt.Sprintf("TA %s 可以值班的班次数 %d 少于要求的 %d", ta.ID, available, ta.RequiredShifts))
		}
		taList[i] = ta
	}

	t.TAs = taList
	res.Timetable = t
	return res, nil
}

func ReadTAs(r io.Reader) ([]domain.TA, error) {
	records, err := readRecords(r, taColumns)
	if err != nil {
		return nil, fmt.Errorf("读取 TA 文件失败: %w", err)
	}

	tas := make([]domain.TA, 0, len(records))
	seen := make(map[string]bool)
	for i, record := range records {
		line := i + 2

		macID := record["macid"]
		if macID == "" {
			return nil, fmt.Errorf("TA 文件第 %d 行: macid 不能为空", line)
		}
		if seen[macID] {
			return nil, fmt.Errorf("TA 文件第 %d 行: macid %s 重复", line, macID)
		}
		seen[macID] = true

		required, err := strconv.Atoi(record["req_shift_per_week"])
		if err != nil || required < 0 {
			return nil, fmt.Errorf("TA 文件第 %d 行: req_shift_per_week 必须是非负整数", line)
		}

		tas = append(tas, domain.TA{
			ID:             macID,
			Name:           record["name"],
			RequiredShifts: required,
			IsGradStudent:  strings.EqualFold(record["type"], "Grad"),
			Desired:        []domain.Shift{},
			Undesired:      []domain.Shift{},
			Unavailable:    []domain.Shift{},
		})
	}

	return tas, nil
}

func ReadShifts(r io.Reader) ([]domain.Shift, error) {
	records, err := readRecords(r, shiftColumns)
	if err != nil {
		return nil, fmt.Errorf("读取班次文件失败: %w", err)
	}

	shifts := make([]domain.Shift, 0, len(records))
	for i, record := range records {
		line := i + 2

		day, err := domain.ParseDayOfWeek(record["day_of_week"])
		if err != nil {
			return nil, fmt.Errorf("班次文件第 %d 行: %w", line, err)
		}

		date := record["date"]
		if date != "" {
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				return nil, fmt.Errorf("班次文件第 %d 行: date 格式应为 YYYY-MM-DD", line)
			}
		}

		start, err := time.Parse("15:04", record["start_time"])
		if err != nil {
			return nil, fmt.Errorf("班次文件第 %d 行: start_time 格式应为 HH:MM", line)
		}

		hours, err := strconv.ParseFloat(record["duration"], 64)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("班次文件第 %d 行: duration 必须是正数", line)
		}
		end := start.Add(time.Duration(hours * float64(time.Hour))).Round(time.Second)
		if end.Day() != start.Day() {
			return nil, fmt.Errorf("班次文件第 %d 行: 班次不能跨过午夜", line)
		}

		required, err := strconv.Atoi(record["req_ta_per_shift"])
		if err != nil || required < 0 {
			return nil, fmt.Errorf("班次文件第 %d 行: req_ta_per_shift 必须是非负整数", line)
		}

		series := record["series"]
		if series == "" {
			return nil, fmt.Errorf("班次文件第 %d 行: series 不能为空", line)
		}

		shifts = append(shifts, domain.Shift{
			ID:          timetable.NewID(),
			Series:      series,
			Alias:       record["name"],
			DayOfWeek:   day,
			StartTime:   start.Format(time.TimeOnly),
			EndTime:     end.Format(time.TimeOnly),
			RequiredTAs: required,
			ShiftDate:   date,
		})
	}

	return shifts, nil
}

type AvailabilityRow struct {
	MacID        string
	Series       string
	Availability string
}

func ReadAvailability(r io.Reader) ([]AvailabilityRow, error) {
	records, err := readRecords(r, availabilityColumns)
	if err != nil {
		return nil, fmt.Errorf("读取空闲时间文件失败: %w", err)
	}

	rows := make([]AvailabilityRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, AvailabilityRow{
			MacID:        record["macid"],
			Series:       record["shift_series"],
			Availability: record["availability"],
		})
	}
	return rows, nil
}

// readRecords 读取表头，将每一行转换成 表头 -> 值 的映射
func readRecords(r io.Reader, required []string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("文件为空")
		}
		return nil, err
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff")))
	}
	for _, col := range required {
		if !slices.Contains(headers, col) {
			return nil, fmt.Errorf("缺少列 %s", col)
		}
	}

	// 读取数据
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}
		records = append(records, record)
	}

	return records, nil
}
