package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
	"gopkg.in/yaml.v3"
)

// 课表文件的字段名与 HTTP 接口的 JSON 一致，YAML 文件先解码成通用结构再按 JSON 解析
func decodeTimetable(r io.Reader, format string) (domain.Timetable, error) {
	var t domain.Timetable

	data, err := io.ReadAll(r)
	if err != nil {
		return t, err
	}

	if format == "yaml" {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return t, fmt.Errorf("YAML 格式错误: %w", err)
		}
		if data, err = json.Marshal(raw); err != nil {
			return t, fmt.Errorf("YAML 中包含无法转换的值: %w", err)
		}
	}

	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return t, fmt.Errorf("课表格式错误: %w", err)
	}

	t = timetable.Reconcile(t)
	if t.ID == "" {
		t.ID = timetable.NewID()
	}
	return t, nil
}

func encodeTimetable(w io.Writer, t domain.Timetable, format string) error {
	if format != "yaml" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}

	// 同样经过 JSON 中转，保证字段名一致
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return err
	}
	return enc.Close()
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// 路径为 - 时从标准输入读取 JSON
func readTimetableFile(path string) (domain.Timetable, error) {
	if path == "-" {
		return decodeTimetable(os.Stdin, "json")
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Timetable{}, err
	}
	defer f.Close()

	return decodeTimetable(f, formatOf(path))
}

// 路径为空时输出到标准输出
func writeTimetableFile(path string, t domain.Timetable) error {
	if path == "" {
		return encodeTimetable(os.Stdout, t, "json")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeTimetable(f, t, formatOf(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
