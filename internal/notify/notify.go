package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// Notifier 把需要发邮件的事件交给邮件 worker，发送失败不应该影响请求本身
type Notifier interface {
	Notify(ctx context.Context, msg domain.MailMessage) error
}

// Publisher 是 amqp.Channel 中用到的部分，方便在测试中替换
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type AMQPNotifier struct {
	ch      Publisher
	queue   string
	timeout time.Duration
}

func NewAMQPNotifier(ch Publisher, queue string, timeout time.Duration) *AMQPNotifier {
	return &AMQPNotifier{
		ch:      ch,
		queue:   queue,
		timeout: timeout,
	}
}

// DeclareQueue 声明持久化的邮件队列，API 和邮件 worker 都会调用
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false,
		false,
		nil,
	)
}

func (n *AMQPNotifier) Notify(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.ch.PublishWithContext(
		ctx,
		"",
		n.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Discard 在没有配置 RabbitMQ 时使用，只记录日志
type Discard struct{}

func (Discard) Notify(_ context.Context, msg domain.MailMessage) error {
	slog.Debug("未配置消息队列，忽略通知", "type", msg.Type, "to", msg.To)
	return nil
}

// Recorder 保存所有通知，用于测试
type Recorder struct {
	mu       sync.Mutex
	Messages []domain.MailMessage
}

func (r *Recorder) Notify(_ context.Context, msg domain.MailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Messages = append(r.Messages, msg)
	return nil
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.Messages))
	for _, msg := range r.Messages {
		types = append(types, msg.Type)
	}
	return types
}
