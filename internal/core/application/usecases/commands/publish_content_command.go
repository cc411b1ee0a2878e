package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var (
	ErrPublishContentCommandIsNotConstructed = errors.New(
		"PublishContentCommand must be created via NewPublishContentCommand constructor",
	)
	ErrEnqueueContentCommandIsNotConstructed = errors.New(
		"EnqueueContentCommand must be created via NewEnqueueContentCommand constructor",
	)
)

// PublishContentCommand publishes the next staged post to the channel.
type PublishContentCommand struct {
	guard guard.ConstructorGuard
}

func NewPublishContentCommand() PublishContentCommand {
	return PublishContentCommand{guard: guard.NewConstructorGuard()}
}

func (c PublishContentCommand) Validate() error {
	return c.guard.Validate(ErrPublishContentCommandIsNotConstructed)
}

// PublishContentCommandHandler takes the head of the content queue and sends
// it to the channel recipient. A post leaves the queue only after it was sent.
type PublishContentCommandHandler struct {
	queue   ports.ContentQueue
	sender  ports.MessageSender
	channel string
	locale  kernel.Locale
	logger  *slog.Logger
}

func NewPublishContentCommandHandler(
	queue ports.ContentQueue,
	sender ports.MessageSender,
	channel string,
	locale kernel.Locale,
	logger *slog.Logger,
) PublishContentCommandHandler {
	return PublishContentCommandHandler{
		queue:   queue,
		sender:  sender,
		channel: channel,
		locale:  locale,
		logger:  logger.With("component", "content_publisher"),
	}
}

// Handle reports whether a post was published.
func (h PublishContentCommandHandler) Handle(ctx context.Context, command PublishContentCommand) (bool, error) {
	if err := command.Validate(); err != nil {
		return false, err
	}
	if h.channel == "" {
		h.logger.WarnContext(ctx, "no content channel configured, nothing published")
		return false, nil
	}

	var published ports.ContentPost
	ok, err := h.queue.Consume(ctx, func(ctx context.Context, post ports.ContentPost) error {
		if sendErr := h.sender.Send(ctx, ports.OutboundMessage{
			Recipient: h.channel,
			Locale:    h.locale,
			Text:      post.Body,
		}); sendErr != nil {
			return errs.NewDeliveryError(h.channel, sendErr)
		}
		published = post
		return nil
	})
	if err != nil {
		return false, err
	}
	if ok {
		h.logger.InfoContext(ctx, "content post published", "post_id", published.ID)
	}
	return ok, nil
}

// EnqueueContentCommand stages a post for a later daily publication.
type EnqueueContentCommand struct {
	body  string
	guard guard.ConstructorGuard
}

func NewEnqueueContentCommand(body string) (EnqueueContentCommand, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return EnqueueContentCommand{}, errs.NewValueIsRequiredError("body")
	}
	return EnqueueContentCommand{body: body, guard: guard.NewConstructorGuard()}, nil
}

func (c EnqueueContentCommand) Validate() error {
	return c.guard.Validate(ErrEnqueueContentCommandIsNotConstructed)
}

func (c EnqueueContentCommand) Body() string { return c.body }

type EnqueueContentCommandHandler struct {
	queue ports.ContentQueue
}

func NewEnqueueContentCommandHandler(queue ports.ContentQueue) EnqueueContentCommandHandler {
	return EnqueueContentCommandHandler{queue: queue}
}

func (h EnqueueContentCommandHandler) Handle(ctx context.Context, command EnqueueContentCommand) (ports.ContentPost, error) {
	if err := command.Validate(); err != nil {
		return ports.ContentPost{}, err
	}
	return h.queue.Enqueue(ctx, command.Body())
}
