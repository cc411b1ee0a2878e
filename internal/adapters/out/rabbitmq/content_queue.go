// Package rabbitmq keeps staged channel posts in a durable RabbitMQ queue.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "orderbot.content"

// channel is the part of *amqp.Channel the queue uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Close() error
}

type message struct {
	ID       string    `json:"id"`
	Body     string    `json:"body"`
	StagedAt time.Time `json:"staged_at"`
}

// ContentQueue implements ports.ContentQueue. Posts are consumed one at a
// time with manual acknowledgement: a failed publish is requeued.
type ContentQueue struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
	now   func() time.Time
}

func Dial(url, queue string, now func() time.Time) (*ContentQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	q, err := newContentQueue(ch, queue, now)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	q.conn = conn
	return q, nil
}

func newContentQueue(ch channel, queue string, now func() time.Time) (*ContentQueue, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return nil, err
	}
	return &ContentQueue{ch: ch, queue: queue, now: now}, nil
}

func (q *ContentQueue) Enqueue(ctx context.Context, body string) (ports.ContentPost, error) {
	post := ports.ContentPost{ID: uuid.NewString(), Body: body, StagedAt: q.now().UTC()}
	raw, err := json.Marshal(message{ID: post.ID, Body: post.Body, StagedAt: post.StagedAt})
	if err != nil {
		return ports.ContentPost{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	err = q.ch.PublishWithContext(cctx,
		"",      // default exchange
		q.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    post.ID,
			Body:         raw,
			Timestamp:    post.StagedAt,
		},
	)
	if err != nil {
		return ports.ContentPost{}, errs.NewStorageError("enqueue content", err)
	}
	return post, nil
}

func (q *ContentQueue) Consume(ctx context.Context, publish func(ctx context.Context, post ports.ContentPost) error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok, err := q.ch.Get(q.queue, false)
	if err != nil {
		return false, errs.NewStorageError("consume content", err)
	}
	if !ok {
		return false, nil
	}

	var m message
	if err := json.Unmarshal(d.Body, &m); err != nil {
		// A malformed post would block the queue forever.
		_ = d.Reject(false)
		return false, errs.NewValueIsInvalidErrorWithCause("content message", err)
	}

	if err := publish(ctx, ports.ContentPost{ID: m.ID, Body: m.Body, StagedAt: m.StagedAt}); err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil {
			return false, errors.Join(err, nackErr)
		}
		return false, err
	}
	if err := d.Ack(false); err != nil {
		return true, errs.NewStorageError("ack content", err)
	}
	return true, nil
}

func (q *ContentQueue) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
