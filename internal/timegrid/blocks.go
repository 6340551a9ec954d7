package timegrid

import (
	"fmt"
	"sort"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

// Block 是日历视图中的一个班次方块
type Block struct {
	ShiftID     string           `json:"shiftId"`
	Series      string           `json:"series"`
	Alias       string           `json:"alias,omitempty"`
	DayOfWeek   domain.DayOfWeek `json:"dayOfWeek"`
	Column      int              `json:"column"` // 周一为 0
	Start       string           `json:"start"`
	End         string           `json:"end"`
	Placement   Placement        `json:"placement"`
	RequiredTAs int              `json:"requiredTas"`
	AssignedTAs []string         `json:"assignedTas"`
	Unfilled    int              `json:"unfilled"`
}

type View struct {
	Labels []string `json:"labels"`
	Blocks []Block  `json:"blocks"`
}

// Blocks 为课表中每个班次计算位置和显示时间，按星期、开始位置排序。
// 班次时间格式错误或星期未知时返回错误。
func (g Grid) Blocks(t domain.Timetable) ([]Block, error) {
	assigned := make(map[string][]string)
	unfilled := make(map[string]int)
	for _, sa := range t.ShiftAssignments {
		if sa.AssignedTA == nil {
			unfilled[sa.Shift.ID]++
			continue
		}
		assigned[sa.Shift.ID] = append(assigned[sa.Shift.ID], sa.AssignedTA.Name)
	}

	blocks := make([]Block, 0, len(t.Shifts))
	for _, s := range t.Shifts {
		column := s.DayOfWeek.Index()
		if column < 0 {
			return nil, fmt.Errorf("班次 %s 的星期无法识别: %q", s.ID, s.DayOfWeek)
		}

		placement, err := g.Layout(s.StartTime, s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("班次 %s: %w", s.ID, err)
		}
		start, _ := ToDisplayTime(s.StartTime)
		end, _ := ToDisplayTime(s.EndTime)

		names := assigned[s.ID]
		if names == nil {
			names = []string{}
		}
		sort.Strings(names)

		blocks = append(blocks, Block{
			ShiftID:     s.ID,
			Series:      s.Series,
			Alias:       s.Alias,
			DayOfWeek:   s.DayOfWeek,
			Column:      column,
			Start:       start,
			End:         end,
			Placement:   placement,
			RequiredTAs: s.RequiredTAs,
			AssignedTAs: names,
			Unfilled:    unfilled[s.ID],
		})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Column != blocks[j].Column {
			return blocks[i].Column < blocks[j].Column
		}
		return blocks[i].Placement.OffsetSlots < blocks[j].Placement.OffsetSlots
	})

	return blocks, nil
}

// BuildView 生成刻度和方块，刻度覆盖到最晚结束的班次
func (g Grid) BuildView(t domain.Timetable) (View, error) {
	blocks, err := g.Blocks(t)
	if err != nil {
		return View{}, err
	}

	rows := 13 // 默认网格显示到 8:30 PM
	for _, b := range blocks {
		if end := int(b.Placement.OffsetSlots+b.Placement.DurationSlots) + 1; end > rows {
			rows = end
		}
	}

	return View{
		Labels: g.Labels(rows),
		Blocks: blocks,
	}, nil
}
