package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ShiftAssignment struct {
	ID         string `json:"id"`
	Shift      Shift  `json:"shift"`
	AssignedTA *TA    `json:"assignedTa,omitempty"` // 为 nil 时表示该名额还没有分配 TA
}

func (a ShiftAssignment) IsFilled() bool {
	return a.AssignedTA != nil
}

type Score struct {
	HardScore   int `json:"hardScore"`
	MediumScore int `json:"mediumScore"`
	SoftScore   int `json:"softScore"`
}

// IsFeasible 硬约束没有被违反时才是可接受的解
func (s Score) IsFeasible() bool {
	return s.HardScore == 0
}

func (s Score) IsZero() bool {
	return s == Score{}
}

func (s Score) String() string {
	return fmt.Sprintf("%dhard/%dmedium/%dsoft", s.HardScore, s.MediumScore, s.SoftScore)
}

// ParseScore 解析求解器的字符串分数格式，例如 "0hard/-3soft" 或 "0hard/0medium/-3soft"
func ParseScore(s string) (Score, error) {
	var score Score
	for _, part := range strings.Split(strings.TrimSpace(s), "/") {
		var (
			suffix string
			dst    *int
		)
		switch {
		case strings.HasSuffix(part, "hard"):
			suffix, dst = "hard", &score.HardScore
		case strings.HasSuffix(part, "medium"):
			suffix, dst = "medium", &score.MediumScore
		case strings.HasSuffix(part, "soft"):
			suffix, dst = "soft", &score.SoftScore
		default:
			return Score{}, fmt.Errorf("无法解析的分数: %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(part, suffix))
		if err != nil {
			return Score{}, fmt.Errorf("无法解析的分数: %q: %w", s, err)
		}
		*dst = n
	}
	return score, nil
}

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Score{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*s = Score{}
			return nil
		}
		score, err := ParseScore(str)
		if err != nil {
			return err
		}
		*s = score
		return nil
	}

	// 使用别名类型避免递归调用 UnmarshalJSON
	type plain Score
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Score(p)
	return nil
}

type SolverStatus string

const (
	SolverStatusScheduled  SolverStatus = "SOLVING_SCHEDULED"
	SolverStatusActive     SolverStatus = "SOLVING_ACTIVE"
	SolverStatusNotSolving SolverStatus = "NOT_SOLVING"
)

func (s SolverStatus) IsTerminal() bool {
	return s == SolverStatusNotSolving
}

type Timetable struct {
	ID               string            `json:"id"`
	Shifts           []Shift           `json:"shifts"`
	TAs              []TA              `json:"tas"`
	ShiftAssignments []ShiftAssignment `json:"shiftAssignments"`
	Score            Score             `json:"score"`
	SolverStatus     SolverStatus      `json:"solverStatus,omitempty"`
}

func (t Timetable) ShiftByID(id string) (Shift, bool) {
	for _, s := range t.Shifts {
		if s.ID == id {
			return s, true
		}
	}
	return Shift{}, false
}

func (t Timetable) TAByID(id string) (TA, bool) {
	for _, ta := range t.TAs {
		if ta.ID == id {
			return ta, true
		}
	}
	return TA{}, false
}

func (t Timetable) AssignmentsOf(shiftID string) []ShiftAssignment {
	res := make([]ShiftAssignment, 0)
	for _, a := range t.ShiftAssignments {
		if a.Shift.ID == shiftID {
			res = append(res, a)
		}
	}
	return res
}

func (t Timetable) UnfilledSlots() int {
	n := 0
	for _, a := range t.ShiftAssignments {
		if !a.IsFilled() {
			n++
		}
	}
	return n
}
