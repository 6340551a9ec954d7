package solver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrNoJobID = errors.New("响应中没有求解任务 ID")

// ExtractJobID 从创建任务的响应中取出任务 ID，依次尝试：
//  1. 结构化响应 {"jobId": "..."}
//  2. 第一对双引号之间的内容（例如 JSON 字符串 "abc"）
//  3. 整个去掉首尾空白的响应体
func ExtractJobID(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", ErrNoJobID
	}

	if trimmed[0] == '{' {
		var resp struct {
			JobID string `json:"jobId"`
		}
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoJobID, err)
		}
		if strings.TrimSpace(resp.JobID) == "" {
			return "", ErrNoJobID
		}
		return resp.JobID, nil
	}

	s := string(trimmed)
	if start := strings.IndexByte(s, '"'); start >= 0 {
		end := strings.IndexByte(s[start+1:], '"')
		if end < 0 {
			return "", fmt.Errorf("%w: 引号没有闭合: %q", ErrNoJobID, s)
		}
		id := s[start+1 : start+1+end]
		if id == "" {
			return "", ErrNoJobID
		}
		return id, nil
	}

	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q", ErrNoJobID, s)
	}
	return s, nil
}
