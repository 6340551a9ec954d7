package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/generation"
)

const QueueName = "email_queue"

// Channel 是 *amqp.Channel 中用到的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch      Channel
	timeout time.Duration
}

func NewPublisher(ch Channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	// 对邮件进行序列化
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化邮件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("发送邮件到消息队列失败: %w", err)
	}

	return nil
}

// Notifier 将排班结果以邮件的形式发给发起生成的管理员
type Notifier struct {
	publisher *Publisher
	user      *domain.User
}

func (p *Publisher) NotifierFor(user *domain.User) *Notifier {
	return &Notifier{
		publisher: p,
		user:      user,
	}
}

func (n *Notifier) Notify(ctx context.Context, result generation.Result) error {
	msgType := domain.MailTypeScheduleGenerated
	if result.Status.State == generation.StateFailed {
		msgType = domain.MailTypeScheduleFailed
	}

	return n.publisher.Publish(ctx, domain.MailMessage{
		Type: msgType,
		To:   n.user.Email,
		Data: domain.GenerationMailData{
			FullName:      n.user.FullName,
			JobID:         result.Status.JobID,
			State:         string(result.Status.State),
			Score:         result.Status.Score.String(),
			Feasible:      result.Status.Score.IsFeasible(),
			Polls:         result.Status.Polls,
			UnfilledSlots: result.Timetable.UnfilledSlots(),
			Error:         result.Status.Error,
		},
	})
}
