package stream

import (
	"context"
	"testing"
	"time"
)

func collectEvents(t *testing.T, r *ProcessRunner, timeout time.Duration) []RunnerEvent {
	t.Helper()
	var got []RunnerEvent
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-r.Events():
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatal("timed out waiting for process events")
			return got
		}
	}
}

func TestProcessRunnerLineEventsAndExit(t *testing.T) {
	r := NewProcessRunner("/bin/sh")
	defer r.Release()

	r.Start(context.Background(), "-c", "echo out-line; echo err-line 1>&2; exit 0")
	events := collectEvents(t, r, 5*time.Second)

	if !events[0].Started {
		t.Fatalf("expected first event to be Started, got %+v", events[0])
	}

	var sawStdout, sawStderr bool
	for _, ev := range events {
		if ev.Line == nil {
			continue
		}
		if ev.Line.Stream == Stdout && ev.Line.Text == "out-line" {
			sawStdout = true
		}
		if ev.Line.Stream == Stderr && ev.Line.Text == "err-line" {
			sawStderr = true
		}
	}
	if !sawStdout || !sawStderr {
		t.Fatalf("expected both stdout and stderr lines, got %+v", events)
	}

	last := events[len(events)-1]
	if last.Exited == nil || !last.Exited.Normal || last.Exited.Code != 0 {
		t.Fatalf("expected normal exit code 0, got %+v", last)
	}
}

func TestProcessRunnerNonZeroExit(t *testing.T) {
	r := NewProcessRunner("/bin/sh")
	defer r.Release()

	r.Start(context.Background(), "-c", "exit 7")
	events := collectEvents(t, r, 5*time.Second)

	last := events[len(events)-1]
	if last.Exited == nil || !last.Exited.Normal || last.Exited.Code != 7 {
		t.Fatalf("expected normal exit code 7, got %+v", last)
	}
}

func TestProcessRunnerSecondStartIsNoOp(t *testing.T) {
	r := NewProcessRunner("/bin/sh")
	defer r.Release()

	r.Start(context.Background(), "-c", "sleep 1")
	r.Start(context.Background(), "-c", "echo should-not-run")

	if !r.IsRunning() {
		t.Fatal("expected runner to be running after first Start")
	}
}

func TestProcessRunnerReleaseKillsChild(t *testing.T) {
	r := NewProcessRunner("/bin/sh")
	r.Start(context.Background(), "-c", "sleep 30")

	time.Sleep(50 * time.Millisecond)
	if !r.IsRunning() {
		t.Fatal("expected runner to report running before release")
	}

	r.Release()
	time.Sleep(100 * time.Millisecond)
	if r.IsRunning() {
		t.Fatal("expected runner to report not running after release")
	}
}

func TestProcessRunnerSpawnErrorForMissingBinary(t *testing.T) {
	r := NewProcessRunner("/no/such/binary-xyz")
	defer r.Release()

	r.Start(context.Background())
	events := collectEvents(t, r, 5*time.Second)

	last := events[len(events)-1]
	if last.SpawnError == nil || *last.SpawnError != FailedToStart {
		t.Fatalf("expected FailedToStart spawn error, got %+v", events)
	}
}
