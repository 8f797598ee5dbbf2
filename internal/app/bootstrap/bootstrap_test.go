package bootstrap

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9090":  ":9090",
		":7070": ":7070",
		" 81 ":  ":81",
	}
	for input, expected := range cases {
		if got := normalizeAddr(input); got != expected {
			t.Fatalf("normalizeAddr(%q): expected %s, got %s", input, expected, got)
		}
	}
}

func TestPollRetriesFailingStepUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- poll(ctx, nil, "test", time.Millisecond, func(context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return errors.New("transient")
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poll did not stop after cancellation")
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 attempts, got %d", calls.Load())
	}
}

type countingMigrator struct {
	calls *int
	err   error
}

func (m countingMigrator) Migrate(context.Context) error {
	*m.calls++
	return m.err
}

func TestMigrateStopsAtFirstFailure(t *testing.T) {
	calls := 0
	err := migrate(context.Background(),
		countingMigrator{calls: &calls},
		countingMigrator{calls: &calls, err: errors.New("boom")},
		countingMigrator{calls: &calls},
	)
	if err == nil || calls != 2 {
		t.Fatalf("expected failure after 2 migrators, got err=%v calls=%d", err, calls)
	}
}
