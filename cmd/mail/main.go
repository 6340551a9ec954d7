package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/mailqueue"
	"github.com/wneessen/go-mail"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("无法读取 .env 文件", slog.String("error", err.Error()))
		return
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列，参数要与 API 服务中的声明一致
	q, err := ch.QueueDeclare(
		mailqueue.QueueName,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 不独占
		false, // 等待 RabbitMQ 确认
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 一次只取一条，发送完再取下一条
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息，手动确认
	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	// 用于关闭 goroutine 的上下文
	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}
				handle(logger, client, cfg.Email.SMTP.Username, msg)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	logger.Info("正在关闭 mail worker...")
	stop()
	wg.Wait()
	logger.Info("mail worker 已成功关闭")
}

func handle(logger *slog.Logger, client *mail.Client, from string, msg amqp.Delivery) {
	email, err := mailqueue.Render(msg.Body)
	if err != nil {
		// 格式错误的消息重试也不会成功，直接丢弃
		logger.Error("无法处理邮件消息", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	logger.Info("收到邮件消息", slog.String("to", email.To), slog.String("subject", email.Subject))

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	if err := m.To(email.To); err != nil {
		logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	m.Subject(email.Subject)
	m.SetBodyString(mail.TypeTextHTML, email.HTML)

	if err := client.DialAndSend(m); err != nil {
		logger.Error("邮件发送失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, true) // 重新入队
		return
	}

	_ = msg.Ack(false)
}
