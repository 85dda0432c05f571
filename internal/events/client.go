// Package events publishes job lifecycle events over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectJobPrefix prefixes every job transition subject. The suffix is
// the lower-cased target status, e.g. chatrecap.job.completed_basic.
const SubjectJobPrefix = "chatrecap.job."

// SubjectJobAll matches every job transition.
const SubjectJobAll = SubjectJobPrefix + ">"

// JobSubject returns the subject for a transition into status.
func JobSubject(status string) string {
	return SubjectJobPrefix + strings.ToLower(status)
}

// JobEvent is emitted on every job status transition.
type JobEvent struct {
	FileID   string    `json:"file_id"`
	UserID   string    `json:"user_id,omitempty"`
	Platform string    `json:"platform,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger zerolog.Logger
}

func NewClient(ctx context.Context, url, token string, logger zerolog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("chatrecap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info().Str("subject", subject).Msg("subscribed")
	return nil
}

// WatchJobs subscribes to every job transition and hands each decoded event
// to fn. Malformed payloads are logged and skipped.
func (c *Client) WatchJobs(fn func(JobEvent)) error {
	return c.Subscribe(SubjectJobAll, func(subject string, data []byte) {
		evt, err := DecodeJobEvent(data)
		if err != nil {
			c.logger.Warn().Err(err).Str("subject", subject).Msg("skipping malformed job event")
			return
		}
		fn(evt)
	})
}

// DecodeJobEvent parses a published JobEvent payload.
func DecodeJobEvent(data []byte) (JobEvent, error) {
	var evt JobEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return JobEvent{}, fmt.Errorf("decode job event: %w", err)
	}
	if evt.FileID == "" || evt.To == "" {
		return JobEvent{}, fmt.Errorf("job event missing file_id or to")
	}
	return evt, nil
}

// Healthy reports whether the connection is up.
func (c *Client) Healthy() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
