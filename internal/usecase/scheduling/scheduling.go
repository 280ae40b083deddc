// Package scheduling runs AnkiConnect actions on a recurring schedule, such as
// a nightly sync or a periodic check of the collection.
package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"yanki-connect/internal/domain"
	"yanki-connect/pkg/ankiconnect"
)

// defaultTaskTimeout bounds one run of a task.
const defaultTaskTimeout = 5 * time.Minute

// Invoker sends one AnkiConnect action. *ankiconnect.Client implements it.
type Invoker interface {
	Invoke(ctx context.Context, action string, params any) (*ankiconnect.Envelope, error)
}

// Task is an action run on a schedule.
type Task struct {
	Name     string
	Schedule string // cron expression "0 3 * * *" OR duration "30m"
	Action   string
	Params   map[string]any
	OneShot  bool
}

// Run records the outcome of the most recent run of a task.
type Run struct {
	Task      string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Scheduler runs tasks on a recurring schedule using cron expressions or durations.
type Scheduler struct {
	cron    *cron.Cron
	invoker Invoker
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	runs    map[string]Run
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler that sends actions through invoker.
func NewScheduler(invoker Invoker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		invoker: invoker,
		timeout: defaultTaskTimeout,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		runs:    make(map[string]Run),
	}
}

// SetTaskTimeout changes how long one run may take. Non-positive values are
// ignored.
func (s *Scheduler) SetTaskTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// AddTask adds a scheduled task. The action must be in the catalog and params
// must be empty for parameterless actions.
func (s *Scheduler) AddTask(task Task) error {
	if task.Name == "" {
		return domain.NewDomainError("scheduler.AddTask", domain.ErrInvalidInput, "task name is required")
	}
	if !ankiconnect.IsKnown(task.Action) {
		return domain.NewDomainError("scheduler.AddTask", domain.ErrUnknownAction,
			fmt.Sprintf("action %q for task %q", task.Action, task.Name))
	}
	params, err := taskParams(task)
	if err != nil {
		return err
	}
	schedule, err := parseSchedule(task.Schedule)
	if err != nil {
		return domain.NewDomainError("scheduler.AddTask", domain.ErrInvalidInput,
			fmt.Sprintf("schedule %q for task %q: %v", task.Schedule, task.Name, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[task.Name]; exists {
		return domain.NewDomainError("scheduler.AddTask", domain.ErrInvalidInput,
			fmt.Sprintf("task %q already exists", task.Name))
	}

	s.entries[task.Name] = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runTask(task.Name, task.Action, params)
		if task.OneShot {
			s.remove(task.Name)
		}
	}))

	s.logger.Info("task added to scheduler", "name", task.Name, "schedule", task.Schedule, "action", task.Action)
	return nil
}

func taskParams(task Task) (any, error) {
	if ankiconnect.IsParameterless(task.Action) {
		if len(task.Params) > 0 {
			return nil, domain.NewDomainError("scheduler.AddTask", domain.ErrInvalidInput,
				fmt.Sprintf("action %s of task %q takes no params", task.Action, task.Name))
		}
		return nil, nil
	}
	if task.Params == nil {
		return map[string]any{}, nil
	}
	return task.Params, nil
}

func (s *Scheduler) runTask(name, action string, params any) {
	s.mu.Lock()
	ctx := s.ctx
	timeout := s.timeout
	s.mu.Unlock()

	if ctx == nil {
		s.logger.Debug("scheduler stopped, skipping task", "task", name)
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := s.invoke(taskCtx, action, params)
	run := Run{Task: name, StartedAt: start, Duration: time.Since(start), Err: err}

	s.mu.Lock()
	s.runs[name] = run
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("scheduled task failed",
			"task", name,
			"action", action,
			"error", err,
			"duration", run.Duration)
		return
	}
	s.logger.Info("scheduled task completed",
		"task", name,
		"action", action,
		"duration", run.Duration)
}

// invoke treats an in-band error as a failed run.
func (s *Scheduler) invoke(ctx context.Context, action string, params any) error {
	env, err := s.invoker.Invoke(ctx, action, params)
	if err != nil {
		return err
	}
	if env.Failed() {
		return &ankiconnect.ActionError{Action: action, Message: *env.Error}
	}
	return nil
}

// RunNow runs a task once, outside its schedule, and returns its outcome.
func (s *Scheduler) RunNow(ctx context.Context, task Task) error {
	if !ankiconnect.IsKnown(task.Action) {
		return domain.NewDomainError("scheduler.RunNow", domain.ErrUnknownAction, task.Action)
	}
	params, err := taskParams(task)
	if err != nil {
		return err
	}
	return s.invoke(ctx, task.Action, params)
}

// RemoveTask removes a task by name.
func (s *Scheduler) RemoveTask(name string) error {
	if !s.remove(name) {
		return domain.NewDomainError("scheduler.RemoveTask", domain.ErrInvalidInput,
			fmt.Sprintf("task %q not found", name))
	}
	s.logger.Info("task removed", "name", name)
	return nil
}

func (s *Scheduler) remove(name string) bool {
	s.mu.Lock()
	entryID, ok := s.entries[name]
	delete(s.entries, name)
	s.mu.Unlock()
	if ok {
		s.cron.Remove(entryID)
	}
	return ok
}

// Tasks returns the names of the scheduled tasks.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// NextRun returns the next scheduled run time of a task, or nil if the task
// is unknown or the scheduler is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	entryID, ok := s.entries[name]
	s.mu.Unlock()

	if !ok {
		return nil
	}
	entry := s.cron.Entry(entryID)
	if entry.ID == 0 || entry.Next.IsZero() {
		return nil
	}
	t := entry.Next
	return &t
}

// LastRun returns the outcome of the most recent run of a task.
func (s *Scheduler) LastRun(name string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[name]
	return run, ok
}

// Start begins running the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.started = true
	return nil
}

// Stop signals the scheduler to stop and waits for running tasks to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx = nil
	s.started = false
	s.mu.Unlock()

	// Running tasks take the lock to record their outcome.
	<-s.cron.Stop().Done()
	return nil
}

// parseSchedule tries to parse a schedule string as a cron expression first,
// then falls back to time.ParseDuration.
func parseSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("empty schedule")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(schedule); err == nil {
		return sched, nil
	}

	dur, err := time.ParseDuration(schedule)
	if err != nil {
		return nil, fmt.Errorf("not a valid cron expression or duration: %q", schedule)
	}
	if dur <= 0 {
		return nil, fmt.Errorf("duration must be positive: %q", schedule)
	}
	return &constantDelay{delay: dur}, nil
}

// ParseSchedule exposes schedule parsing for config validation.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	return parseSchedule(schedule)
}

// constantDelay implements cron.Schedule for a fixed interval.
// Unlike cron.Every(), it supports sub-second durations.
type constantDelay struct {
	delay time.Duration
}

func (d *constantDelay) Next(t time.Time) time.Time {
	return t.Add(d.delay)
}
