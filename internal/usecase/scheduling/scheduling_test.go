package scheduling

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"yanki-connect/internal/domain"
	"yanki-connect/pkg/ankiconnect"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type call struct {
	action string
	params any
}

type fakeInvoker struct {
	mu    sync.Mutex
	calls []call
	count atomic.Int32
	env   *ankiconnect.Envelope
	err   error
}

func (f *fakeInvoker) Invoke(_ context.Context, action string, params any) (*ankiconnect.Envelope, error) {
	f.count.Add(1)
	f.mu.Lock()
	f.calls = append(f.calls, call{action: action, params: params})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.env != nil {
		return f.env, nil
	}
	return &ankiconnect.Envelope{Result: []byte("null")}, nil
}

func (f *fakeInvoker) first(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no calls recorded")
	}
	return f.calls[0]
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(&fakeInvoker{}, newTestLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestSchedulerActionFires(t *testing.T) {
	inv := &fakeInvoker{}
	s := NewScheduler(inv, newTestLogger())
	if err := s.AddTask(Task{Name: "sync", Schedule: "50ms", Action: "sync"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if c := inv.count.Load(); c < 1 {
		t.Fatalf("action fired %d times, expected at least 1", c)
	}
	got := inv.first(t)
	if got.action != "sync" {
		t.Errorf("action = %q, want sync", got.action)
	}
	if got.params != nil {
		t.Errorf("params = %v, want nil for parameterless action", got.params)
	}

	run, ok := s.LastRun("sync")
	if !ok {
		t.Fatal("no run recorded")
	}
	if run.Err != nil {
		t.Errorf("run error = %v", run.Err)
	}
	if run.Task != "sync" || run.StartedAt.IsZero() {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestSchedulerPassesParams(t *testing.T) {
	inv := &fakeInvoker{}
	s := NewScheduler(inv, newTestLogger())
	params := map[string]any{"decks": []string{"Default"}}
	if err := s.AddTask(Task{Name: "stats", Schedule: "50ms", Action: "getDeckStats", Params: params}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	got := inv.first(t)
	m, ok := got.params.(map[string]any)
	if !ok {
		t.Fatalf("params type = %T", got.params)
	}
	if _, ok := m["decks"]; !ok {
		t.Errorf("params = %v, want decks", m)
	}
}

func TestSchedulerRejectsBadTasks(t *testing.T) {
	s := NewScheduler(&fakeInvoker{}, newTestLogger())

	tests := []struct {
		name string
		task Task
		want error
	}{
		{"no name", Task{Schedule: "1m", Action: "sync"}, domain.ErrInvalidInput},
		{"unknown action", Task{Name: "x", Schedule: "1m", Action: "listNames"}, domain.ErrUnknownAction},
		{"params on bare action", Task{Name: "x", Schedule: "1m", Action: "sync", Params: map[string]any{"a": 1}}, domain.ErrInvalidInput},
		{"bad schedule", Task{Name: "x", Schedule: "sometimes", Action: "sync"}, domain.ErrInvalidInput},
		{"empty schedule", Task{Name: "x", Action: "sync"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddTask(tt.task)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddTask error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("Tasks() = %d entries, want 0", n)
	}
}

func TestSchedulerDuplicateName(t *testing.T) {
	s := NewScheduler(&fakeInvoker{}, newTestLogger())
	if err := s.AddTask(Task{Name: "nightly", Schedule: "0 3 * * *", Action: "sync"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	err := s.AddTask(Task{Name: "nightly", Schedule: "1h", Action: "sync"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("duplicate AddTask error = %v", err)
	}
}

func TestSchedulerInBandErrorFailsRun(t *testing.T) {
	msg := "collection is not available"
	inv := &fakeInvoker{env: &ankiconnect.Envelope{Error: &msg}}
	s := NewScheduler(inv, newTestLogger())
	s.AddTask(Task{Name: "failing", Schedule: "50ms", Action: "sync"})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	run, ok := s.LastRun("failing")
	if !ok {
		t.Fatal("no run recorded")
	}
	if !errors.Is(run.Err, ankiconnect.ErrActionFailed) {
		t.Errorf("run error = %v, want ErrActionFailed", run.Err)
	}
}

func TestSchedulerTransportErrorFailsRun(t *testing.T) {
	inv := &fakeInvoker{err: domain.ErrTransport}
	s := NewScheduler(inv, newTestLogger())
	s.AddTask(Task{Name: "failing", Schedule: "50ms", Action: "sync"})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	run, _ := s.LastRun("failing")
	if !errors.Is(run.Err, domain.ErrTransport) {
		t.Errorf("run error = %v, want ErrTransport", run.Err)
	}
}

func TestSchedulerContextCancellation(t *testing.T) {
	inv := &fakeInvoker{}
	s := NewScheduler(inv, newTestLogger())
	s.AddTask(Task{Name: "ctx-task", Schedule: "50ms", Action: "version"})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(150 * time.Millisecond)
	cancel()
	s.Stop()

	countAfterStop := inv.count.Load()
	time.Sleep(100 * time.Millisecond)

	if inv.count.Load() != countAfterStop {
		t.Error("task continued after stop")
	}
}

func TestSchedulerOneShot(t *testing.T) {
	inv := &fakeInvoker{}
	s := NewScheduler(inv, newTestLogger())
	s.AddTask(Task{Name: "once", Schedule: "30ms", Action: "reloadCollection", OneShot: true})

	s.Start(context.Background())
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if c := inv.count.Load(); c != 1 {
		t.Errorf("one-shot task fired %d times, want 1", c)
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("one-shot task still scheduled")
	}
}

func TestSchedulerRemoveTask(t *testing.T) {
	s := NewScheduler(&fakeInvoker{}, newTestLogger())
	s.AddTask(Task{Name: "nightly", Schedule: "0 3 * * *", Action: "sync"})

	s.Start(context.Background())
	defer s.Stop()

	if next := s.NextRun("nightly"); next == nil {
		t.Fatal("NextRun returned nil for a running task")
	} else if next.Hour() != 3 {
		t.Errorf("NextRun hour = %d, want 3", next.Hour())
	}

	if err := s.RemoveTask("nightly"); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	if s.NextRun("nightly") != nil {
		t.Error("NextRun should be nil after removal")
	}
	if err := s.RemoveTask("nightly"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("second RemoveTask error = %v", err)
	}
}

func TestSchedulerRunNow(t *testing.T) {
	inv := &fakeInvoker{}
	s := NewScheduler(inv, newTestLogger())

	if err := s.RunNow(context.Background(), Task{Action: "deckNames"}); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if got := inv.first(t); got.action != "deckNames" {
		t.Errorf("action = %q", got.action)
	}
	if err := s.RunNow(context.Background(), Task{Action: "nope"}); !errors.Is(err, domain.ErrUnknownAction) {
		t.Errorf("RunNow unknown error = %v", err)
	}
}

func TestSchedulerTaskTimeout(t *testing.T) {
	var deadline atomic.Bool
	inv := invokerFunc(func(ctx context.Context, _ string, _ any) (*ankiconnect.Envelope, error) {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return nil, ctx.Err()
	})
	s := NewScheduler(inv, newTestLogger())
	s.SetTaskTimeout(20 * time.Millisecond)
	s.SetTaskTimeout(-1)
	s.AddTask(Task{Name: "slow", Schedule: "30ms", Action: "sync", OneShot: true})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	if !deadline.Load() {
		t.Error("task was not bounded by the task timeout")
	}
}

type invokerFunc func(ctx context.Context, action string, params any) (*ankiconnect.Envelope, error)

func (f invokerFunc) Invoke(ctx context.Context, action string, params any) (*ankiconnect.Envelope, error) {
	return f(ctx, action, params)
}

func TestParseSchedule(t *testing.T) {
	valid := []string{"*/5 * * * *", "@daily", "0 3 * * 1-5", "30m", "250ms"}
	for _, s := range valid {
		if _, err := ParseSchedule(s); err != nil {
			t.Errorf("ParseSchedule(%q): %v", s, err)
		}
	}
	invalid := []string{"", "every day", "-5m", "0s"}
	for _, s := range invalid {
		if _, err := ParseSchedule(s); err == nil {
			t.Errorf("ParseSchedule(%q) succeeded, want error", s)
		}
	}

	sched, _ := ParseSchedule("90s")
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := sched.Next(base); !got.Equal(base.Add(90 * time.Second)) {
		t.Errorf("Next = %v", got)
	}
}

var _ Invoker = (*ankiconnect.Client)(nil)
