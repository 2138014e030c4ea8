package pacing

import (
	"context"
	"testing"
	"time"
)

func TestFirstWaitIsImmediate(t *testing.T) {
	pacer := NewIntervalPacer(time.Second)

	start := time.Now()
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first wait took %v, expected immediate", elapsed)
	}
}

func TestSubsequentWaitsAreSpaced(t *testing.T) {
	interval := 50 * time.Millisecond
	pacer := NewIntervalPacer(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("three waits took %v, want at least %v", elapsed, 2*interval)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	pacer := NewIntervalPacer(time.Hour)
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pacer.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestFactoryYieldsIndependentPacers(t *testing.T) {
	factory := NewFactory(time.Hour)

	a := factory()
	if err := a.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh pacer must not inherit the spent token of a previous one.
	b := factory()
	start := time.Now()
	if err := b.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("fresh pacer waited %v, expected immediate", elapsed)
	}
}
