package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConnection holds one AMQP connection and channel.
type RabbitMQConnection struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// NewRabbitMQConnection dials RabbitMQ and opens a channel.
func NewRabbitMQConnection(host, port, username, password string) (*RabbitMQConnection, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", username, password, host, port)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	return &RabbitMQConnection{Conn: conn, Channel: ch}, nil
}

func (c *RabbitMQConnection) Close() {
	if c.Channel != nil {
		c.Channel.Close()
	}
	if c.Conn != nil {
		c.Conn.Close()
	}
}

type IRefreshPublisher interface {
	PublishRefresh(ctx context.Context, event RefreshEvent) error
}

// RefreshPublisher publishes refresh events to RabbitMQ
type RefreshPublisher struct {
	conn *RabbitMQConnection
}

// NewRefreshPublisher creates a new refresh event publisher
func NewRefreshPublisher(conn *RabbitMQConnection) *RefreshPublisher {
	return &RefreshPublisher{
		conn: conn,
	}
}

// PublishRefresh publishes a refresh event to the country_refresh_events queue
func (p *RefreshPublisher) PublishRefresh(ctx context.Context, event RefreshEvent) error {
	_, err := p.conn.Channel.QueueDeclare(
		RefreshQueue, // queue name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	event = event.withDefaults()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",           // exchange
		RefreshQueue, // routing key (queue name)
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}

	slog.Info("Refresh event published",
		"queue", RefreshQueue,
		"tier", event.Tier,
		"saved", event.SavedCount,
	)

	return nil
}
