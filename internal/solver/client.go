package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

var ErrJobNotFound = errors.New("求解任务不存在")

// StatusError 表示求解服务返回了非 2xx 的响应
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("求解服务返回错误 %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound && strings.HasPrefix(e.Path, "/schedules/") {
		return ErrJobNotFound
	}
	return nil
}

// 错误响应体只保留前面一部分用于日志
const maxErrorBody = 512

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTPClient 用于测试时注入 httptest 的客户端
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// 提交时不带 score 和 solverStatus，由求解服务填写
type createJobRequest struct {
	ID               string                   `json:"id"`
	Shifts           []domain.Shift           `json:"shifts"`
	TAs              []domain.TA              `json:"tas"`
	ShiftAssignments []domain.ShiftAssignment `json:"shiftAssignments"`
}

// CreateJob 提交课表，返回求解任务 ID
func (c *Client) CreateJob(ctx context.Context, timetable domain.Timetable) (string, error) {
	payload, err := json.Marshal(createJobRequest{
		ID:               timetable.ID,
		Shifts:           timetable.Shifts,
		TAs:              timetable.TAs,
		ShiftAssignments: timetable.ShiftAssignments,
	})
	if err != nil {
		return "", fmt.Errorf("序列化课表失败: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/schedules", payload)
	if err != nil {
		return "", err
	}

	jobID, err := ExtractJobID(body)
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// GetJob 获取求解任务当前的课表，包括 solverStatus 和 score
func (c *Client) GetJob(ctx context.Context, jobID string) (domain.Timetable, error) {
	var timetable domain.Timetable
	if err := c.getJSON(ctx, "/schedules/"+url.PathEscape(jobID), &timetable); err != nil {
		return domain.Timetable{}, err
	}
	return timetable, nil
}

// StopJob 请求求解服务提前结束任务
func (c *Client) StopJob(ctx context.Context, jobID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/schedules/"+url.PathEscape(jobID), nil)
	return err
}

func (c *Client) ListDemoData(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, "/demo-data", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// GetDemoData 获取 demo 课表，星期使用三个字母的缩写，由 domain.DayOfWeek 负责转换
func (c *Client) GetDemoData(ctx context.Context, name string) (domain.Timetable, error) {
	var timetable domain.Timetable
	if err := c.getJSON(ctx, "/demo-data/"+url.PathEscape(name), &timetable); err != nil {
		return domain.Timetable{}, err
	}
	return timetable, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("解析求解服务响应失败 %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求求解服务失败 %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取求解服务响应失败 %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}
