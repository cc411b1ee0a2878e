package ports

import (
	"context"
	"time"
)

// ContentPost is one staged channel post.
type ContentPost struct {
	ID       string
	Body     string
	StagedAt time.Time
}

// ContentQueue is the FIFO of staged channel posts.
type ContentQueue interface {
	Enqueue(ctx context.Context, body string) (ContentPost, error)

	// Consume hands the next post to publish. The post is removed only when
	// publish returns nil; otherwise it stays at the head for the next attempt.
	// It returns false when the queue is empty.
	Consume(ctx context.Context, publish func(ctx context.Context, post ContentPost) error) (bool, error)
}
