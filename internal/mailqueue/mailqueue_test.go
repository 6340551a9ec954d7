package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
)

type fakeChannel struct {
	key      string
	msgs     []amqp.Publishing
	err      error
	deadline bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, _ string, key string, _ bool, _ bool, msg amqp.Publishing) error {
	_, c.deadline = ctx.Deadline()
	c.key = key
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func decode(t *testing.T, msg amqp.Publishing) (domain.MailMessage, domain.GenerationMailData) {
	t.Helper()

	var raw struct {
		Type string                    `json:"type"`
		To   string                    `json:"to"`
		Data domain.GenerationMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Body, &raw))
	return domain.MailMessage{Type: raw.Type, To: raw.To}, raw.Data
}

func TestNotifyGenerated(t *testing.T) {
	ch := &fakeChannel{}
	user := &domain.User{FullName: "张三", Email: "zhangsan@example.com"}
	n := NewPublisher(ch, time.Second).NotifierFor(user)

	tt := domain.Timetable{ShiftAssignments: []domain.ShiftAssignment{{ID: "a"}, {ID: "b", AssignedTA: &domain.TA{ID: "x"}}}}
	err := n.Notify(context.Background(), generation.Result{
		Status: generation.Status{
			State: generation.StateComplete,
			JobID: "job-1",
			Polls: 4,
			Score: domain.Score{SoftScore: -7},
		},
		Timetable: tt,
	})
	require.NoError(t, err)

	assert.Equal(t, QueueName, ch.key)
	assert.True(t, ch.deadline)
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)

	msg, data := decode(t, ch.msgs[0])
	assert.Equal(t, domain.MailTypeScheduleGenerated, msg.Type)
	assert.Equal(t, "zhangsan@example.com", msg.To)
	assert.Equal(t, "张三", data.FullName)
	assert.Equal(t, "job-1", data.JobID)
	assert.Equal(t, "0hard/0medium/-7soft", data.Score)
	assert.True(t, data.Feasible)
	assert.Equal(t, 1, data.UnfilledSlots)
}

func TestNotifyFailed(t *testing.T) {
	ch := &fakeChannel{}
	n := NewPublisher(ch, time.Second).NotifierFor(&domain.User{Email: "a@example.com"})

	require.NoError(t, n.Notify(context.Background(), generation.Result{
		Status: generation.Status{State: generation.StateFailed, Error: "轮询次数超过上限"},
	}))

	msg, data := decode(t, ch.msgs[0])
	assert.Equal(t, domain.MailTypeScheduleFailed, msg.Type)
	assert.Equal(t, "轮询次数超过上限", data.Error)
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	err := NewPublisher(ch, time.Second).Publish(context.Background(), domain.MailMessage{Type: "x"})
	assert.ErrorIs(t, err, ch.err)
}

func TestRender(t *testing.T) {
	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "wangw@example.com",
		Data: domain.CreateUserMailData{FullName: "王伟", Username: "wangw", Password: "<secret>"},
	})
	require.NoError(t, err)

	email, err := Render(body)
	require.NoError(t, err)
	assert.Equal(t, "wangw@example.com", email.To)
	assert.Equal(t, "TA 排班系统 - 账户信息", email.Subject)
	assert.Contains(t, email.HTML, "王伟")
	assert.Contains(t, email.HTML, "&lt;secret&gt;")
}

func TestRenderGeneration(t *testing.T) {
	data := domain.GenerationMailData{FullName: "管理员", JobID: "job-1", State: "complete", Score: "0hard/0medium/-3soft", Feasible: true, Polls: 4}
	body, err := json.Marshal(domain.MailMessage{Type: domain.MailTypeScheduleGenerated, To: "a@example.com", Data: data})
	require.NoError(t, err)

	email, err := Render(body)
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "job-1")
	assert.Contains(t, email.HTML, "0hard/0medium/-3soft")
	assert.Contains(t, email.HTML, "可以登录系统查看课表")

	data.Error = "排班生成超时"
	body, err = json.Marshal(domain.MailMessage{Type: domain.MailTypeScheduleFailed, To: "a@example.com", Data: data})
	require.NoError(t, err)

	email, err = Render(body)
	require.NoError(t, err)
	assert.Equal(t, "TA 排班系统 - 排班生成失败", email.Subject)
	assert.Contains(t, email.HTML, "排班生成超时")
}

func TestRenderErrors(t *testing.T) {
	_, err := Render([]byte(`{"type":"reset_password","to":"a@example.com","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMailType)

	_, err = Render([]byte(`not json`))
	assert.Error(t, err)

	_, err = Render([]byte(`{"type":"create_user","to":"a@example.com","data":"oops"}`))
	assert.Error(t, err)
}
