package mq

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/walkgoal/apiserver/config"
)

const natsMessageIDHeader = "Walkgoal-Message-Id"

// NATSClient publishes events as core NATS messages on a subject named after
// the channel.
type NATSClient struct {
	conn *nats.Conn
}

func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url is required")
	}
	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSClient{conn: conn}, nil
}

func (n *NATSClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("nats channel is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	msg := nats.NewMsg(channel)
	msg.Data = data
	msg.Header.Set(natsMessageIDHeader, id)
	for key, value := range attrs {
		msg.Header.Set(key, value)
	}
	if err := n.conn.PublishMsg(msg); err != nil {
		return "", err
	}
	return id, nil
}

// Subscribe delivers messages until ctx is done. Core NATS has no redelivery,
// so handler errors are dropped.
func (n *NATSClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("nats channel is required")
	}

	msgs := make(chan *nats.Msg, 64)
	sub, err := n.conn.ChanSubscribe(channel, msgs)
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			_ = handler(ctx, Message{
				ID:         msg.Header.Get(natsMessageIDHeader),
				Data:       msg.Data,
				Attributes: natsHeaderAttributes(msg.Header),
			})
		}
	}
}

func (n *NATSClient) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

func natsHeaderAttributes(h nats.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(h))
	for key := range h {
		if key == natsMessageIDHeader {
			continue
		}
		attrs[key] = h.Get(key)
	}
	return attrs
}
