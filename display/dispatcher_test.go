package display

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitForCalls(t *testing.T, f *FakeBridge, n int) []Command {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := f.Calls(); len(calls) >= n {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d calls, got %d", n, len(f.Calls()))
	return nil
}

func TestDispatcherPreservesOrder(t *testing.T) {
	f := NewFakeBridge()
	d := NewDispatcher(f, 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for v := 0; v < 10; v++ {
		if !d.Dispatch(Command{DisplayID: "d1", Code: "0x10", Value: v}) {
			t.Fatalf("dispatch %d dropped", v)
		}
	}

	calls := waitForCalls(t, f, 10)
	for i, c := range calls {
		if c.Value != i {
			t.Fatalf("position %d: expected value %d, got %d", i, i, c.Value)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(NewFakeBridge(), 1, nil)
	// Not running: the first command fills the queue.
	if !d.Dispatch(Command{DisplayID: "d1", Code: "0x10", Value: 1}) {
		t.Fatal("first dispatch should fit")
	}
	if d.Dispatch(Command{DisplayID: "d1", Code: "0x10", Value: 2}) {
		t.Fatal("second dispatch should be dropped")
	}
	if d.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", d.Dropped())
	}
}

func TestDispatcherCountsFailuresAndContinues(t *testing.T) {
	f := NewFakeBridge()
	f.SetErr = errors.New("i2c timeout")
	d := NewDispatcher(f, 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(Command{DisplayID: "d1", Code: "0x10", Value: 1})
	d.Dispatch(Command{DisplayID: "d1", Code: "0x12", Value: 2})
	waitForCalls(t, f, 2)

	deadline := time.Now().Add(time.Second)
	for d.Failed() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if d.Failed() != 2 {
		t.Fatalf("expected 2 failures, got %d", d.Failed())
	}
}
