package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/linkmatch/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	factory := func(string) *Pipeline { return New() }

	if bp := NewBatchProcessor(factory); bp.concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
	}
	if bp := NewBatchProcessor(factory, WithConcurrency(7)); bp.concurrency != 7 {
		t.Errorf("expected concurrency 7, got %d", bp.concurrency)
	}
	if bp := NewBatchProcessor(factory, WithConcurrency(0)); bp.concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency, got %d", bp.concurrency)
	}
	if bp := NewBatchProcessor(factory, WithBatchLogger(nil)); bp.logger == nil {
		t.Error("expected non-nil logger")
	}
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("results keep source order", func(t *testing.T) {
		t.Parallel()

		sources := []string{"a.html", "b.html", "c.html", "d.html"}
		bp := NewBatchProcessor(func(source string) *Pipeline {
			p := New(WithLogger(discardLogger()))
			p.AddStep(&mockStep{
				name: "slow-first",
				doFunc: func(_ context.Context, e *model.Extraction) error {
					if source == "a.html" {
						time.Sleep(20 * time.Millisecond)
					}
					e.Links = append(e.Links, "http://"+source[:1]+".com")
					return nil
				},
			})
			return p
		}, WithBatchLogger(discardLogger()))

		results, err := bp.ProcessBatch(context.Background(), sources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range results {
			if r == nil || r.Source != sources[i] {
				t.Fatalf("result %d = %+v, want source %s", i, r, sources[i])
			}
			if r.Links[0] != "http://"+sources[i][:1]+".com" {
				t.Errorf("result %d links = %v", i, r.Links)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		var mu sync.Mutex
		bp := NewBatchProcessor(func(string) *Pipeline {
			p := New(WithLogger(discardLogger()))
			p.AddStep(&mockStep{
				name: "track",
				doFunc: func(context.Context, *model.Extraction) error {
					n := current.Add(1)
					mu.Lock()
					if n > peak.Load() {
						peak.Store(n)
					}
					mu.Unlock()
					time.Sleep(10 * time.Millisecond)
					current.Add(-1)
					return nil
				},
			})
			return p
		}, WithConcurrency(2), WithBatchLogger(discardLogger()))

		sources := []string{"1", "2", "3", "4", "5", "6"}
		if _, err := bp.ProcessBatch(context.Background(), sources); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
		}
	})

	t.Run("pipeline errors do not stop the batch", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(source string) *Pipeline {
			p := New(WithLogger(discardLogger()))
			p.AddStep(&mockStep{
				name: "maybe-fail",
				doFunc: func(context.Context, *model.Extraction) error {
					if source == "bad" {
						return errors.New("boom")
					}
					return nil
				},
			})
			return p
		}, WithBatchLogger(discardLogger()))

		results, err := bp.ProcessBatch(context.Background(), []string{"good", "bad", "good2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range results {
			if r == nil {
				t.Errorf("result %d is nil", i)
			}
		}
	})

	t.Run("cancelled context leaves unstarted sources nil", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func(string) *Pipeline { return New(WithLogger(discardLogger())) },
			WithBatchLogger(discardLogger()))

		results, err := bp.ProcessBatch(ctx, []string{"a", "b"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(results) != 2 || results[0] != nil || results[1] != nil {
			t.Errorf("expected two nil results, got %v", results)
		}
	})

	t.Run("cancellation before the first step leaves the source nil", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var ran atomic.Bool
		bp := NewBatchProcessor(func(string) *Pipeline {
			// The worker has already checked ctx; cancel before Execute.
			cancel()
			p := New(WithLogger(discardLogger()))
			p.AddStep(&mockStep{
				name: "extract",
				doFunc: func(context.Context, *model.Extraction) error {
					ran.Store(true)
					return nil
				},
			})
			return p
		}, WithBatchLogger(discardLogger()))

		results, err := bp.ProcessBatch(ctx, []string{"a"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if results[0] != nil {
			t.Errorf("expected nil result, got %+v", results[0])
		}
		if ran.Load() {
			t.Error("expected no step to run")
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming results.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func(string) *Pipeline { return New(WithLogger(discardLogger())) },
		WithBatchLogger(discardLogger()))

	var mu sync.Mutex
	seen := make(map[int]string)
	err := bp.ProcessBatchWithCallback(context.Background(), []string{"x", "y", "z"}, func(e *model.Extraction, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = e.Source
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 || seen[0] != "x" || seen[1] != "y" || seen[2] != "z" {
		t.Errorf("unexpected callbacks %v", seen)
	}
}
