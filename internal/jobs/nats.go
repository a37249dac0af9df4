package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectSnapshot is the NATS subject for snapshot extraction requests.
const SubjectSnapshot = "handover.snapshot.request"

// NATS is the broker-backed queue. Each instance both publishes jobs and
// subscribes to process them, so a multi-node deployment shares the work.
type NATS struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	logger *slog.Logger
}

func NewNATS(url, token string, handler Handler, logger *slog.Logger) (*NATS, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	q := &NATS{conn: nc, logger: logger}
	q.sub, err = nc.QueueSubscribe(SubjectSnapshot, "handover-workers", func(msg *nats.Msg) {
		var job Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			logger.Error("bad job payload", "subject", msg.Subject, "error", err)
			return
		}
		handler(context.Background(), job)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", SubjectSnapshot, err)
	}
	logger.Info("subscribed", "subject", SubjectSnapshot)
	return q, nil
}

func (q *NATS) Submit(_ context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.conn.Publish(SubjectSnapshot, payload); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

func (q *NATS) Close() {
	if q.sub != nil {
		_ = q.sub.Unsubscribe()
	}
	q.conn.Close()
}
