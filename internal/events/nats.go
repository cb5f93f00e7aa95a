package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const streamName = "ASSIGNMINT_TASK_EVENTS"

type Client struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
}

func Connect(url string) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("assignmint"))
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		_ = conn.Drain()
		conn.Close()
		return nil, err
	}
	if err := EnsureStream(js); err != nil {
		_ = conn.Drain()
		conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, JS: js}, nil
}

func ConnectWithRetry(url string, timeout time.Duration) (*Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := Connect(url)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("connect jetstream timeout after %s: %w", timeout, lastErr)
}

// EnsureStream creates the task event stream when it does not exist yet.
func EnsureStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(streamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return err
		}
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:      streamName,
			Subjects:  []string{SubjectPrefix + ">"},
			Retention: nats.LimitsPolicy,
			Storage:   nats.FileStorage,
			Replicas:  1,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Publisher() Publisher {
	return NewSubjectPublisher(func(subject string, payload []byte) error {
		_, err := c.JS.Publish(subject, payload)
		return err
	})
}

func (c *Client) Close() {
	if c == nil || c.Conn == nil {
		return
	}
	_ = c.Conn.Drain()
	c.Conn.Close()
}
