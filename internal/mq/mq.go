package mq

import (
	"context"
	"fmt"

	"github.com/walkgoal/apiserver/config"
)

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error asks the broker to redeliver
// when it supports that.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker operations used for activity events.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

func NewMQ(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// New connects to the broker selected by cfg.Backend. It returns nil when
// events are disabled.
func New(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "", config.BackendNone:
		return nil, nil
	case config.BackendRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case config.BackendPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case config.BackendNATS:
		backend, err = NewNATSClient(cfg.NATS)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Backend, err)
	}
	return NewMQ(backend), nil
}

// Publish sends a message to the named channel and returns its broker ID.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe blocks, delivering messages from channel to handler until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
