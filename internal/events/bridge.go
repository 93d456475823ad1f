package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/handyhub/quotehub/internal/logger"
)

// JobSignalHandler receives the job registry's signals. Handlers must be
// idempotent: the transport may deliver the same signal more than once.
type JobSignalHandler interface {
	HandleJobCreated(ctx context.Context, payload *JobCreatedPayload) error
	HandleJobCancelled(ctx context.Context, payload *JobCancelledPayload) error
	HandleJobUpdated(ctx context.Context, payload *JobUpdatedPayload) error
}

// Bridge consumes job signals from the transport and dispatches them into
// the matching and quotation services.
type Bridge struct {
	bus     *Bus
	handler JobSignalHandler
}

// NewBridge creates a Bridge wired to the given transport and handler.
func NewBridge(bus *Bus, handler JobSignalHandler) *Bridge {
	return &Bridge{bus: bus, handler: handler}
}

// Run subscribes to the job signals and dispatches until ctx is cancelled.
// Handler errors are logged and the message is dropped; the transport's
// redelivery policy owns retries, not an in-process loop.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.bus.Subscribe(ctx, SignalJobCreated, SignalJobCancelled, SignalJobUpdated)
	defer func() {
		if err := sub.Close(); err != nil {
			logger.Errorf("closing job signal subscription: %v", err)
		}
	}()

	// Fail fast if the subscription could not be established.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to job signals: %w", err)
	}

	logger.Info("Event bridge consuming job signals")
	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Event bridge received shutdown signal, stopping...")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := b.dispatch(ctx, Signal(msg.Channel), []byte(msg.Payload)); err != nil {
				logger.ErrorWithFields("Failed to process job signal", map[string]interface{}{
					"signal": msg.Channel,
					"error":  err.Error(),
				})
			}
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, signal Signal, data []byte) error {
	switch signal {
	case SignalJobCreated:
		var payload JobCreatedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", signal, err)
		}
		return b.handler.HandleJobCreated(ctx, &payload)

	case SignalJobCancelled:
		var payload JobCancelledPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", signal, err)
		}
		return b.handler.HandleJobCancelled(ctx, &payload)

	case SignalJobUpdated:
		var payload JobUpdatedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", signal, err)
		}
		return b.handler.HandleJobUpdated(ctx, &payload)

	default:
		return fmt.Errorf("unknown job signal: %s", signal)
	}
}
