package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/config"
	"github.com/sangkips/tableside-api/internal/domain/event"
)

const (
	reconnectInterval = 5 * time.Second
	outboxSize        = 512
)

var errNotConnected = errors.New("rabbitmq: not connected")

// channel is the part of *amqp.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type message struct {
	topic   string
	payload event.Payload
}

// RabbitPublisher forwards domain events to a topic exchange. Routing keys
// are the event topics, e.g. order.created. Events are queued in memory and
// published by one goroutine, so Notify never waits on the broker.
type RabbitPublisher struct {
	cfg config.RabbitMQConfig
	log zerolog.Logger

	mu           sync.Mutex
	conn         *amqp.Connection
	ch           channel
	reconnecting bool

	outbox chan message
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRabbitPublisher dials the broker, declares the exchange and starts the publish loop
func NewRabbitPublisher(cfg config.RabbitMQConfig, log zerolog.Logger) (*RabbitPublisher, error) {
	p := newPublisher(cfg, log)
	if err := p.connect(); err != nil {
		p.cancel()
		return nil, err
	}
	go p.loop()
	return p, nil
}

func newPublisher(cfg config.RabbitMQConfig, log zerolog.Logger) *RabbitPublisher {
	if cfg.Exchange == "" {
		cfg.Exchange = "restaurant_events"
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RabbitPublisher{
		cfg:    cfg,
		log:    log,
		outbox: make(chan message, outboxSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.mu.Lock()
	p.conn = conn
	p.ch = ch
	p.mu.Unlock()
	return nil
}

// Notify queues the event. When the queue is full the event is dropped.
func (p *RabbitPublisher) Notify(topic string, payload event.Payload) {
	select {
	case <-p.ctx.Done():
		return
	default:
	}

	select {
	case p.outbox <- message{topic: topic, payload: payload}:
	default:
		p.log.Warn().Str("topic", topic).Msg("rabbitmq outbox full, event dropped")
	}
}

func (p *RabbitPublisher) loop() {
	defer close(p.done)
	for {
		select {
		case msg := <-p.outbox:
			if err := p.publish(msg); err != nil {
				p.log.Error().Err(err).Str("topic", msg.topic).Msg("failed to publish event")
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *RabbitPublisher) publish(msg message) error {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	if ch == nil || ch.IsClosed() {
		go p.reconnect()
		return errNotConnected
	}

	body, err := json.Marshal(msg.payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.PublishTimeout)
	defer cancel()

	return ch.PublishWithContext(ctx, p.cfg.Exchange, msg.topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.payload.OccurredAt,
		Body:         body,
	})
}

func (p *RabbitPublisher) reconnect() {
	p.mu.Lock()
	if p.reconnecting {
		p.mu.Unlock()
		return
	}
	p.reconnecting = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.reconnecting = false
		p.mu.Unlock()
	}()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := p.connect(); err != nil {
				p.log.Warn().Err(err).Msg("rabbitmq reconnect failed")
				continue
			}
			p.log.Info().Msg("rabbitmq reconnected")
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// Close stops the publish loop and closes the channel and connection.
// Events still queued are discarded.
func (p *RabbitPublisher) Close() error {
	p.cancel()
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		if err := p.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
