package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// drainer is the part of *nats.Subscription that Close needs.
type drainer interface {
	Drain() error
}

// Subscriber implements ports.ReportSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []drainer
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeReports delivers every stored report to handler. A report the
// handler rejects is redelivered up to three times.
func (s *Subscriber) SubscribeReports(ctx context.Context, handler func(ctx context.Context, report *domain.Report) error) error {
	sub, err := s.js.Subscribe(ReportSubjects, func(msg *nats.Msg) {
		var report domain.Report
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			slog.Warn("dropping malformed report", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &report); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(reportDurableName),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close drains the subscriptions and the connection. The durable consumer
// stays on the server, so the next subscriber resumes where this one stopped.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	if s.conn != nil {
		_ = s.conn.Drain()
	}
}
