package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange уведомлений. Fanout: каждый подписчик получает всё,
// фильтрация по event_type остаётся потребителю.
const notifyExchange = "copflow.notify"

// AMQPSink публикует уведомления в RabbitMQ.
type AMQPSink struct {
	conn *Connection
}

// amqpMessage — тело уведомления.
type amqpMessage struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAMQPSink создаёт AMQPSink и объявляет exchange уведомлений.
func NewAMQPSink(conn *Connection) (*AMQPSink, error) {
	err := conn.WithChannel(func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(
			notifyExchange, // name
			"fanout",       // type
			true,           // durable
			false,          // auto-deleted
			false,          // internal
			false,          // no-wait
			nil,            // arguments
		)
	})
	if err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", notifyExchange, err)
	}
	return &AMQPSink{conn: conn}, nil
}

// Notify публикует уведомление в exchange.
func (s *AMQPSink) Notify(ctx context.Context, eventType, message string) error {
	msg := amqpMessage{
		ID:        uuid.New().String(),
		EventType: eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return s.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			notifyExchange,
			"", // fanout игнорирует routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", notifyExchange, err)
		}
		return nil
	})
}
