package sweep

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/systems2beyond/bethel-social-sub005/internal/ingest"
)

type fakeIngestor struct {
	batches [][]string
}

func (f *fakeIngestor) IngestBatch(_ context.Context, urls []string) *ingest.BatchResult {
	f.batches = append(f.batches, urls)
	return &ingest.BatchResult{Ingested: len(urls)}
}

type fakeExpander struct {
	pages map[string][]string
	err   error
}

func (f *fakeExpander) Discover(_ context.Context, seed string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[seed], nil
}

func TestRunOnce_FixedURLSet(t *testing.T) {
	ingestor := &fakeIngestor{}
	urls := []string{"https://example.org/events", "https://example.org/about"}
	s := New(Config{URLs: urls}, ingestor, nil)

	result := s.RunOnce(context.Background())

	if result.Ingested != 2 {
		t.Errorf("Ingested = %d, want 2", result.Ingested)
	}
	if len(ingestor.batches) != 1 || !reflect.DeepEqual(ingestor.batches[0], urls) {
		t.Errorf("batches = %v, want exactly the configured set", ingestor.batches)
	}
}

func TestRunOnce_ExpandsSeeds(t *testing.T) {
	ingestor := &fakeIngestor{}
	expander := &fakeExpander{pages: map[string][]string{
		"https://example.org": {
			"https://example.org",
			"https://example.org/events",
			"https://example.org/ministries",
		},
	}}
	s := New(Config{
		URLs:        []string{"https://example.org"},
		ExpandLinks: true,
	}, ingestor, expander)

	s.RunOnce(context.Background())

	if len(ingestor.batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(ingestor.batches))
	}
	batch := ingestor.batches[0]
	if len(batch) != 3 {
		t.Errorf("batch = %v, want 3 deduplicated urls", batch)
	}
}

func TestRunOnce_ExpansionFailureFallsBackToSeed(t *testing.T) {
	ingestor := &fakeIngestor{}
	expander := &fakeExpander{err: errors.New("connection refused")}
	s := New(Config{
		URLs:        []string{"https://example.org"},
		ExpandLinks: true,
	}, ingestor, expander)

	s.RunOnce(context.Background())

	if len(ingestor.batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(ingestor.batches))
	}
	if !reflect.DeepEqual(ingestor.batches[0], []string{"https://example.org"}) {
		t.Errorf("batch = %v, want the seed alone", ingestor.batches[0])
	}
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	ingestor := &fakeIngestor{}
	s := New(Config{
		URLs:     []string{"https://example.org"},
		Interval: 10 * time.Millisecond,
	}, ingestor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	// Immediate run plus at least one tick.
	if len(ingestor.batches) < 2 {
		t.Errorf("got %d sweeps, want at least 2", len(ingestor.batches))
	}
}
