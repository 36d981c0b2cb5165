package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const publishTimeout = 5 * time.Second

// Message is one delivery. Reply is set when the sender used request/reply
// and expects the result on that inbox as well.
type Message struct {
	Subject string
	Reply   string
	Data    []byte
}

type Handler func(msg Message)

type Client interface {
	Publish(subject string, data interface{}) error
	// QueueSubscribe delivers each message on subject to one member of the
	// queue group, so replicas share the work instead of repeating it.
	QueueSubscribe(subject, queue string, handler Handler) error
	Close()
}

type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream bool
	logger *slog.Logger
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name("stackelberg"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger}
	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("results stream unavailable, publishing without persistence", "error", err)
	} else {
		c.stream = true
	}
	return c, nil
}

// ensureStream retains results and stats so late consumers can replay them.
// Solve requests are work items and are not captured.
func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		return err
	}
	_, err = c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{subjectEquilibriumPrefix + ">", SubjectSolverStats},
		MaxAge:     maxAge,
		Duplicates: DedupWindow,
	})
	return err
}

// Publish sends data as JSON. Per-request results go through JetStream with
// the subject as message id, so a request answered twice within DedupWindow
// is stored once.
func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if !c.stream || !strings.HasPrefix(subject, subjectEquilibriumPrefix) {
		return c.conn.Publish(subject, payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	ack, err := c.js.Publish(ctx, subject, payload, jetstream.WithMsgID(subject))
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if ack.Duplicate {
		c.logger.Debug("duplicate result dropped by stream", "subject", subject)
	}
	return nil
}

func (c *NATSClient) QueueSubscribe(subject, queue string, handler Handler) error {
	_, err := c.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(Message{Subject: msg.Subject, Reply: msg.Reply, Data: msg.Data})
	})
	if err != nil {
		return fmt.Errorf("queue subscribe %s (%s): %w", subject, queue, err)
	}
	return nil
}

// Close drains subscriptions so in-flight solve requests still publish
// their results, then closes the connection.
func (c *NATSClient) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
}
