package postwatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/systems2beyond/bethel-social-sub005/internal/ingest"
	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// Ingestor runs a single source through ingestion.
type Ingestor interface {
	Ingest(ctx context.Context, src models.Source) (*ingest.Result, error)
}

// Watcher consumes post change events from the bus and re-ingests posts
// whose indexable content changed.
type Watcher struct {
	subscriber message.Subscriber
	engine     Ingestor
}

// NewWatcher creates a Watcher reading from the given subscriber.
func NewWatcher(subscriber message.Subscriber, engine Ingestor) *Watcher {
	return &Watcher{subscriber: subscriber, engine: engine}
}

// Run subscribes to the post-changes topic and processes events until the
// context is cancelled. Every message is acked: a failed ingestion is logged,
// not retried, so one bad post cannot wedge the stream.
func (w *Watcher) Run(ctx context.Context) error {
	messages, err := w.subscriber.Subscribe(ctx, TopicPostChanges)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			w.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (w *Watcher) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event ChangeEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		slog.Warn("dropping malformed post change event", "message_id", msg.UUID, "error", err)
		return
	}

	if !ShouldReingest(event.Before, event.After) {
		if event.After == nil && event.Before != nil {
			slog.Info("post deleted, leaving indexed copy in place", "post_id", event.Before.ID)
		} else {
			slog.Debug("post change needs no re-ingestion", "message_id", msg.UUID)
		}
		return
	}

	result, err := w.engine.Ingest(ctx, models.Source{
		Type: models.DocTypeSocialPost,
		URL:  event.URL,
		Post: event.After,
	})
	if err != nil {
		slog.Error("failed to re-ingest changed post", "post_id", event.After.ID, "error", err)
		return
	}
	slog.Info("post re-ingested", "post_id", event.After.ID, "chunks", result.Chunks)
}
