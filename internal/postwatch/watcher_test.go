package postwatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/systems2beyond/bethel-social-sub005/internal/ingest"
	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

type recordingEngine struct {
	mu      sync.Mutex
	sources []models.Source
}

func (r *recordingEngine) Ingest(_ context.Context, src models.Source) (*ingest.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
	return &ingest.Result{Chunks: 1}, nil
}

func (r *recordingEngine) ingested() []models.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Source(nil), r.sources...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_ReingestsChangedPost(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	engine := &recordingEngine{}
	watcher := NewWatcher(bus, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	err := Publish(bus, ChangeEvent{
		URL:    "https://social.example.com/posts/7",
		Before: &models.PostSnapshot{ID: "7", Text: "old text"},
		After:  &models.PostSnapshot{ID: "7", Text: "new text"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return len(engine.ingested()) == 1 })

	src := engine.ingested()[0]
	if src.Type != models.DocTypeSocialPost {
		t.Errorf("Type = %q", src.Type)
	}
	if src.Post == nil || src.Post.Text != "new text" {
		t.Errorf("Post = %+v, want the after snapshot", src.Post)
	}
	if src.URL != "https://social.example.com/posts/7" {
		t.Errorf("URL = %q", src.URL)
	}
}

func TestWatcher_IgnoresDeletionsAndNoOps(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	engine := &recordingEngine{}
	watcher := NewWatcher(bus, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Deletion.
	Publish(bus, ChangeEvent{Before: &models.PostSnapshot{ID: "1", Text: "gone"}})
	// Metadata-only edit.
	Publish(bus, ChangeEvent{
		Before: &models.PostSnapshot{ID: "2", Text: "same", Author: "a"},
		After:  &models.PostSnapshot{ID: "2", Text: "same", Author: "b"},
	})
	// One real change so we know the stream was drained.
	Publish(bus, ChangeEvent{
		Before: &models.PostSnapshot{ID: "3", Text: "x"},
		After:  &models.PostSnapshot{ID: "3", Text: "y"},
	})

	waitFor(t, func() bool { return len(engine.ingested()) == 1 })

	if got := engine.ingested()[0].Post.ID; got != "3" {
		t.Errorf("ingested post %q, want only post 3", got)
	}
}

func TestWatcher_MalformedEventDoesNotWedgeStream(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	engine := &recordingEngine{}
	watcher := NewWatcher(bus, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	bus.Publish(TopicPostChanges, message.NewMessage(watermill.NewUUID(), []byte("not json")))
	Publish(bus, ChangeEvent{
		After: &models.PostSnapshot{ID: "9", Text: "still works"},
	})

	waitFor(t, func() bool { return len(engine.ingested()) == 1 })
}
