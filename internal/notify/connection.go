package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxReconnectDelay = 30 * time.Second

// Connection — обёртка над AMQP-соединением с автоматическим reconnect.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed   bool
	closedCh chan struct{}
}

// NewConnection подключается к RabbitMQ и следит за разрывами.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		url:      url,
		logger:   logger,
		closedCh: make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}
	go c.watch()

	return c, nil
}

// connect устанавливает соединение и открывает канал.
func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch

	c.logger.Info("connected to RabbitMQ")
	return nil
}

// watch следит за соединением и переподключается при разрыве.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			time.Sleep(time.Second)
			continue
		}

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.closedCh:
			return
		case err := <-notifyClose:
			if err != nil {
				c.logger.Warn("amqp connection closed", "error", err)
			}
			c.reconnect()
		}
	}
}

// reconnect пытается переподключиться с экспоненциальной задержкой.
func (c *Connection) reconnect() {
	delay := time.Second

	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		c.mu.RUnlock()

		c.logger.Info("attempting amqp reconnect", "delay", delay)
		time.Sleep(delay)

		if err := c.connect(); err != nil {
			c.logger.Warn("amqp reconnect failed", "error", err)
			delay = min(delay*2, maxReconnectDelay)
			continue
		}
		return
	}
}

// WithChannel выполняет функцию с текущим каналом.
func (c *Connection) WithChannel(fn func(ch *amqp.Channel) error) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil {
		return fmt.Errorf("no amqp channel available")
	}
	return fn(ch)
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close закрывает соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closedCh)

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}
