package mailqueue

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrUnknownMailType = errors.New("不支持的邮件类型")

type Email struct {
	To      string
	Subject string
	HTML    string
}

// Render 把队列中的消息解码成可以直接发送的邮件
func Render(body []byte) (*Email, error) {
	var raw struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	var (
		data    any
		subject string
		name    string
	)
	switch raw.Type {
	case domain.MailTypeCreateUser:
		data = &domain.CreateUserMailData{}
		subject = "TA 排班系统 - 账户信息"
		name = "new_account_email.html"
	case domain.MailTypeScheduleGenerated:
		data = &domain.GenerationMailData{}
		subject = "TA 排班系统 - 排班已生成"
		name = "schedule_generated_email.html"
	case domain.MailTypeScheduleFailed:
		data = &domain.GenerationMailData{}
		subject = "TA 排班系统 - 排班生成失败"
		name = "schedule_failed_email.html"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMailType, raw.Type)
	}

	if err := json.Unmarshal(raw.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("无法渲染邮件模板: %w", err)
	}

	return &Email{
		To:      raw.To,
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}
