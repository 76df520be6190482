package stepflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stepflowhq/stepflow/internal/config"
	"github.com/stepflowhq/stepflow/pkg/stepflow/core"
	"github.com/stepflowhq/stepflow/pkg/stepflow/domain"
	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

// Engine drives workflow instances to completion: it owns the definition
// registry, a tick queue drained by a worker pool, and the retry policy.
// Ticks are serialized per instance and parallel across instances.
type Engine struct {
	store         Store
	clock         core.Clock
	retry         models.RetryConfig
	sleepInterval time.Duration
	workerCount   int

	mu          sync.RWMutex
	definitions map[string]*WorkflowDefinition

	queue chan string
	done  chan struct{}

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures an Engine beyond the environment-backed defaults.
type Option func(*Engine)

// WithClock substitutes the wall clock, mainly for tests.
func WithClock(clock core.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithRetryConfig overrides the default retry policy applied to RETRY results,
// step errors and panics.
func WithRetryConfig(rc models.RetryConfig) Option {
	return func(e *Engine) { e.retry = rc }
}

// WithWorkerCount sets the number of tick workers.
func WithWorkerCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workerCount = n
		}
	}
}

// WithQueueSize sets the tick queue buffer.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queue = make(chan string, n)
		}
	}
}

// WithSleepInterval sets the default park duration for SLEEP results that
// carry no explicit delay.
func WithSleepInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sleepInterval = d
		}
	}
}

// NewEngine creates an engine on top of the given store. Defaults for worker
// count, queue size, retry policy and sleep interval come from the SFLOW_*
// system settings.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		clock: core.NewRealClock(),
		retry: models.RetryConfig{
			MaxRetryCount:    config.GetSystemSettingInteger(config.ENGINE_MAX_RETRY_COUNT),
			RetryIntervalMin: config.GetSystemSettingDuration(config.ENGINE_RETRY_INTERVAL_MIN),
			RetryIntervalMax: config.GetSystemSettingDuration(config.ENGINE_RETRY_INTERVAL_MAX),
		},
		sleepInterval: config.GetSystemSettingDuration(config.ENGINE_SLEEP_INTERVAL),
		workerCount:   config.GetSystemSettingInteger(config.ENGINE_WORKER_COUNT),
		definitions:   make(map[string]*WorkflowDefinition),
		queue:         make(chan string, config.GetSystemSettingInteger(config.ENGINE_QUEUE_SIZE)),
		done:          make(chan struct{}),
		locks:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a compiled definition to the engine. Registering the same
// workflow name twice is a configuration error.
func (e *Engine) Register(def *WorkflowDefinition) error {
	if def == nil {
		return &ConfigurationError{Err: fmt.Errorf("nil workflow definition")}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.definitions[def.Name()]; dup {
		return &ConfigurationError{Workflow: def.Name(), Err: fmt.Errorf("workflow already registered")}
	}
	e.definitions[def.Name()] = def
	slog.Info("Registered workflow definition", "workflow", def.Name(), "steps", len(def.steps))
	return nil
}

// Definitions returns the registered definitions, for observability surfaces.
func (e *Engine) Definitions() []*WorkflowDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*WorkflowDefinition, 0, len(e.definitions))
	for _, d := range e.definitions {
		out = append(out, d)
	}
	return out
}

func (e *Engine) definition(name string) (*WorkflowDefinition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.definitions[name]
	return d, ok
}

// Start creates a new RUNNING instance of the named workflow at its start
// step, persists it and schedules an immediate tick. It returns the new
// instance id without waiting for execution.
func (e *Engine) Start(ctx context.Context, workflowName string, initialVars map[string]string) (string, error) {
	def, ok := e.definition(workflowName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowName)
	}

	now := e.clock.Now()
	inst := &domain.Instance{
		ID:           uuid.NewString(),
		WorkflowName: def.Name(),
		CurrentStep:  def.StartStep(),
		Status:       domain.StatusRunning,
		Vars:         make(map[string]string, len(initialVars)),
		Created:      now,
		Modified:     now,
	}
	for k, v := range initialVars {
		inst.Vars[k] = v
	}

	if err := e.store.Save(ctx, inst); err != nil {
		return "", fmt.Errorf("saving new instance: %w", err)
	}
	slog.InfoContext(ctx, "Started workflow instance", "workflow", workflowName, "instance_id", inst.ID, "start_step", inst.CurrentStep)

	e.ScheduleNow(inst.ID)
	return inst.ID, nil
}

// ScheduleNow enqueues an immediate tick for the instance. It is safe to call
// for finished instances (the tick no-ops) and from external code to nudge an
// instance parked in SLEEP.
func (e *Engine) ScheduleNow(id string) {
	select {
	case e.queue <- id:
	case <-e.done:
	default:
		// queue full, hand off without blocking the caller
		go func() {
			select {
			case e.queue <- id:
			case <-e.done:
			}
		}()
	}
}

// ScheduleAfter parks a tick for the instance behind a timer. No worker or
// lock is held while waiting.
func (e *Engine) ScheduleAfter(id string, delay time.Duration) {
	if delay <= 0 {
		e.ScheduleNow(id)
		return
	}
	go func() {
		select {
		case <-e.clock.After(delay):
			e.ScheduleNow(id)
		case <-e.done:
		}
	}()
}

// Describe returns a read-only snapshot of an instance: status, current step,
// vars and the full history.
func (e *Engine) Describe(ctx context.Context, id string) (*models.InstanceDescription, error) {
	inst, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	desc := &models.InstanceDescription{
		ID:           inst.ID,
		WorkflowName: inst.WorkflowName,
		Status:       string(inst.Status),
		CurrentStep:  inst.CurrentStep,
		Attempts:     inst.Attempts,
		Vars:         inst.Vars,
		History:      make([]models.HistoryLine, 0, len(inst.History)),
		Created:      inst.Created,
		Modified:     inst.Modified,
	}
	for _, h := range inst.History {
		desc.History = append(desc.History, models.HistoryLine{DateTime: h.DateTime, Line: h.Line})
	}
	return desc, nil
}

// Cancel transitions a RUNNING instance to CANCELLED. Already finished
// instances are left untouched. Any tick already scheduled for the instance
// observes the terminal status and no-ops.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	lock := e.instanceLock(id)
	lock.Lock()
	defer lock.Unlock()

	inst, err := e.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if inst.Status.Terminal() {
		return nil
	}
	e.appendHistory(ctx, inst, "CANCELLED")
	inst.Status = domain.StatusCancelled
	inst.Modified = e.clock.Now()
	if err := e.store.Save(ctx, inst); err != nil {
		return fmt.Errorf("saving cancelled instance: %w", err)
	}
	slog.InfoContext(ctx, "Cancelled workflow instance", "instance_id", id)
	return nil
}

// StartEngine runs the worker pool until ctx is cancelled. It blocks; callers
// typically run it on its own goroutine, like the demo in cmd/stepflow.
func (e *Engine) StartEngine(ctx context.Context) {
	slog.Info("Starting workflow engine", "workers", e.workerCount, "queue_size", cap(e.queue))

	var wg sync.WaitGroup
	for i := 0; i < e.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			Worker(ctx, workerID, e)
		}(i)
	}

	<-ctx.Done()
	slog.InfoContext(ctx, "Workflow engine stopping due to context cancel")
	close(e.done)
	wg.Wait()
}

func (e *Engine) instanceLock(id string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

func (e *Engine) releaseInstanceLock(id string) {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	delete(e.locks, id)
}
