package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sagaflow/sagaflow/pkg/kv"
)

const executionKeyPrefix = "execution:"

// DefaultRetention is how long terminal execution records are kept before
// the store purges them.
const DefaultRetention = 7 * 24 * time.Hour

// StartOptions carries optional per-execution metadata for StartSaga.
type StartOptions struct {
	TenantID      string
	UserID        string
	CorrelationID string
	Metadata      map[string]string
}

// Statistics summarizes orchestrator state for operators.
type Statistics struct {
	RegisteredDefinitions int            `json:"registered_definitions"`
	TotalExecutions       int            `json:"total_executions"`
	ActiveExecutions      int            `json:"active_executions"`
	ByStatus              map[Status]int `json:"by_status"`

	// AverageExecutionTime covers terminal executions still cached.
	AverageExecutionTime time.Duration `json:"average_execution_time"`
}

// Option customizes Orchestrator initialization.
type Option func(orchestrator *Orchestrator)

// WithLogger wires a logger into the orchestrator and its executors.
func WithLogger(logger Logger) Option {
	return func(orchestrator *Orchestrator) {
		if logger != nil {
			orchestrator.logger = logger
		}
	}
}

// WithMetrics wires a metrics recorder into the orchestrator and its
// executors.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(orchestrator *Orchestrator) {
		if metrics != nil {
			orchestrator.metrics = metrics
		}
	}
}

// WithPublisher wires a lifecycle event publisher.
func WithPublisher(publisher EventPublisher) Option {
	return func(orchestrator *Orchestrator) {
		if publisher != nil {
			orchestrator.publisher = publisher
		}
	}
}

// WithRetention overrides the terminal record retention window.
func WithRetention(retention time.Duration) Option {
	return func(orchestrator *Orchestrator) {
		if retention > 0 {
			orchestrator.retention = retention
		}
	}
}

// WithMaxConcurrentSagas sets maximum concurrent saga executions.
func WithMaxConcurrentSagas(max int) Option {
	return func(orchestrator *Orchestrator) {
		if max > 0 {
			orchestrator.maxConcurrent = max
			orchestrator.sema = make(chan struct{}, max)
		}
	}
}

// WithStepExecutor overrides the forward step executor.
func WithStepExecutor(executor *StepExecutor) Option {
	return func(orchestrator *Orchestrator) {
		if executor != nil {
			orchestrator.executor = executor
		}
	}
}

// WithCompensationEngine overrides the compensation engine.
func WithCompensationEngine(engine *CompensationEngine) Option {
	return func(orchestrator *Orchestrator) {
		if engine != nil {
			orchestrator.compensator = engine
		}
	}
}

// handle tracks cancellation intent for one running execution. Cancellation
// is honored between steps only; a step in flight runs to completion or its
// own timeout first.
type handle struct {
	cancelled atomic.Bool
}

// Orchestrator creates saga executions from registered definitions, drives
// them forward through the StepExecutor, rolls back through the
// CompensationEngine on failure, and persists every transition before acting
// on it.
type Orchestrator struct {
	registry    *Registry
	store       kv.Store
	executor    *StepExecutor
	compensator *CompensationEngine
	publisher   EventPublisher
	metrics     MetricsRecorder
	logger      Logger
	retention   time.Duration

	mu         sync.RWMutex
	executions map[string]*Execution
	handles    map[string]*handle

	maxConcurrent int
	sema          chan struct{}
	wg            sync.WaitGroup
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewOrchestrator creates a saga orchestrator backed by the given store.
func NewOrchestrator(store kv.Store, options ...Option) *Orchestrator {
	orchestrator := &Orchestrator{
		registry:      NewRegistry(),
		store:         store,
		publisher:     &nopPublisher{},
		metrics:       &nopMetricsRecorder{},
		logger:        &nopLogger{},
		retention:     DefaultRetention,
		executions:    make(map[string]*Execution),
		handles:       make(map[string]*handle),
		maxConcurrent: 100,
		sema:          make(chan struct{}, 100),
		stopCh:        make(chan struct{}),
	}
	for _, option := range options {
		if option != nil {
			option(orchestrator)
		}
	}
	if orchestrator.executor == nil {
		orchestrator.executor = NewStepExecutor(
			WithExecutorLogger(orchestrator.logger),
			WithExecutorMetrics(orchestrator.metrics),
			WithExecutorPublisher(orchestrator.publisher),
		)
	}
	if orchestrator.compensator == nil {
		orchestrator.compensator = NewCompensationEngine(
			WithCompensationLogger(orchestrator.logger),
			WithCompensationMetrics(orchestrator.metrics),
			WithCompensationPublisher(orchestrator.publisher),
		)
	}

	orchestrator.wg.Add(1)
	go orchestrator.pruneLoop()

	return orchestrator
}

// RegisterSaga validates and registers a saga definition. Re-registering an
// id overwrites the prior definition.
func (o *Orchestrator) RegisterSaga(def *Definition) error {
	return o.registry.Register(def)
}

// Registry exposes the definition registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// StartSaga creates a new execution for a registered definition and runs it
// asynchronously. It returns the saga id as soon as the initial running
// state is persisted; callers observe the outcome through GetStatus or
// lifecycle events.
func (o *Orchestrator) StartSaga(ctx context.Context, definitionID string, input any, opts StartOptions) (string, error) {
	def, err := o.registry.Definition(definitionID)
	if err != nil {
		return "", err
	}

	sagaID := uuid.New().String()
	sagaCtx := NewContext(sagaID, input, opts)
	execution := NewExecution(sagaID, def, sagaCtx)

	if err := o.persist(ctx, execution); err != nil {
		return "", err
	}

	o.mu.Lock()
	o.executions[sagaID] = execution
	o.handles[sagaID] = &handle{}
	o.mu.Unlock()

	o.metrics.IncActiveSagas()
	o.publish(Event{
		Type:          EventSagaStarted,
		SagaID:        sagaID,
		DefinitionID:  def.ID,
		Status:        StatusRunning,
		CorrelationID: opts.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Info("saga started",
		"saga_id", sagaID,
		"definition_id", def.ID,
		"steps", len(def.Steps))

	o.launch(def, execution, 0)
	return sagaID, nil
}

// GetStatus returns a snapshot of one execution, falling back to the durable
// store for executions evicted from memory.
func (o *Orchestrator) GetStatus(ctx context.Context, sagaID string) (*Execution, error) {
	o.mu.RLock()
	execution, ok := o.executions[sagaID]
	if ok {
		snapshot := execution.clone()
		o.mu.RUnlock()
		return snapshot, nil
	}
	o.mu.RUnlock()

	return o.loadExecution(ctx, sagaID)
}

// CancelSaga requests cancellation of a running saga. The request is honored
// at the next step boundary and triggers compensation of completed work.
// Returns false when the saga is unknown or not running.
func (o *Orchestrator) CancelSaga(sagaID string) bool {
	o.mu.RLock()
	execution, ok := o.executions[sagaID]
	h := o.handles[sagaID]
	running := ok && execution.Status == StatusRunning
	o.mu.RUnlock()
	if !running || h == nil {
		return false
	}

	h.cancelled.Store(true)
	o.logger.Info("saga cancellation requested", "saga_id", sagaID)
	return true
}

// RetrySaga moves a failed or compensated saga back to running and resumes
// at the first incomplete step. Completed steps are never re-executed.
// Returns false when the saga is unknown or not retriable.
func (o *Orchestrator) RetrySaga(ctx context.Context, sagaID string) bool {
	o.mu.Lock()
	execution, ok := o.executions[sagaID]
	if !ok {
		o.mu.Unlock()
		loaded, err := o.loadExecution(ctx, sagaID)
		if err != nil {
			return false
		}
		// Only retriable executions get attached; a completed or
		// crash-artifact running record must not pollute the cache.
		if !loaded.Status.CanRetry() {
			return false
		}
		o.mu.Lock()
		// Re-check: another caller may have re-attached it meanwhile.
		if attached, attachedOK := o.executions[sagaID]; attachedOK {
			execution = attached
		} else {
			execution = loaded
			o.executions[sagaID] = execution
			o.handles[sagaID] = &handle{}
		}
	}

	if !execution.Status.CanRetry() {
		o.mu.Unlock()
		return false
	}

	def, err := o.registry.Definition(execution.DefinitionID)
	if err != nil {
		o.mu.Unlock()
		o.logger.Error("saga retry failed, definition unregistered",
			"saga_id", sagaID,
			"definition_id", execution.DefinitionID)
		return false
	}

	priorStatus := execution.Status
	execution.ResetForRetry()
	if err := execution.TransitionTo(StatusRunning); err != nil {
		o.mu.Unlock()
		return false
	}
	o.handles[sagaID] = &handle{}
	resumeAt := execution.CurrentStepIndex
	o.mu.Unlock()

	if err := o.persist(ctx, execution); err != nil {
		o.mu.Lock()
		execution.Status = priorStatus
		o.mu.Unlock()
		o.logger.Error("saga retry persist failed", "saga_id", sagaID, "error", err)
		return false
	}

	o.metrics.IncActiveSagas()
	o.publish(Event{
		Type:          EventSagaRetried,
		SagaID:        sagaID,
		DefinitionID:  def.ID,
		Status:        StatusRunning,
		CorrelationID: execution.Context.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Info("saga retried",
		"saga_id", sagaID,
		"resume_index", resumeAt)

	o.launch(def, execution, resumeAt)
	return true
}

// ResumeSaga re-attaches a persisted execution after a process restart and
// continues it: a running execution resumes forward at the first incomplete
// step, a compensating one re-runs the rollback pass.
func (o *Orchestrator) ResumeSaga(ctx context.Context, sagaID string) error {
	execution, err := o.loadExecution(ctx, sagaID)
	if err != nil {
		return err
	}

	switch execution.Status {
	case StatusRunning, StatusCompensating:
	default:
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("saga %s is %s, nothing to resume", sagaID, execution.Status),
		}
	}

	def, err := o.registry.Definition(execution.DefinitionID)
	if err != nil {
		return err
	}

	ctx, span := sagaTracer().Start(ctx, spanSagaResume,
		trace.WithAttributes(
			attribute.String("saga.id", sagaID),
			attribute.String("saga.definition_id", def.ID),
			attribute.String("saga.status", string(execution.Status)),
		))
	defer span.End()

	o.mu.Lock()
	if _, attached := o.executions[sagaID]; attached {
		o.mu.Unlock()
		return &ValidationError{
			Field:   "saga_id",
			Message: fmt.Sprintf("saga %s is already attached", sagaID),
		}
	}
	execution.CurrentStepIndex = len(execution.CompletedSteps)
	o.executions[sagaID] = execution
	o.handles[sagaID] = &handle{}
	o.mu.Unlock()

	o.metrics.IncActiveSagas()
	o.metrics.RecordSagaRecovery(string(execution.Status))
	o.publish(Event{
		Type:          EventSagaResumed,
		SagaID:        sagaID,
		DefinitionID:  def.ID,
		Status:        execution.Status,
		CorrelationID: execution.Context.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Info("saga resumed",
		"saga_id", sagaID,
		"status", execution.Status,
		"resume_index", execution.CurrentStepIndex)

	if execution.Status == StatusCompensating {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.sema <- struct{}{}
			defer func() { <-o.sema }()
			o.rollback(trace.ContextWithSpan(context.Background(), span), def, execution, fmt.Errorf("%s", execution.Error))
		}()
		return nil
	}

	o.launch(def, execution, execution.CurrentStepIndex)
	return nil
}

// GetStatistics reports execution counts grouped by status.
func (o *Orchestrator) GetStatistics() Statistics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := Statistics{
		RegisteredDefinitions: o.registry.Count(),
		TotalExecutions:       len(o.executions),
		ByStatus:              make(map[Status]int),
	}
	var terminal int
	var total time.Duration
	for _, execution := range o.executions {
		stats.ByStatus[execution.Status]++
		if execution.Status.IsTerminal() {
			terminal++
			total += execution.Metrics.ExecutionTime
		} else {
			stats.ActiveExecutions++
		}
	}
	if terminal > 0 {
		stats.AverageExecutionTime = total / time.Duration(terminal)
	}
	return stats
}

// Shutdown stops background work and waits for in-flight sagas to reach a
// step boundary or finish, bounded by ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.stopOnce.Do(func() { close(o.stopCh) })

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) launch(def *Definition, execution *Execution, startIndex int) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.sema <- struct{}{}
		defer func() { <-o.sema }()
		// The caller's request context ends when StartSaga returns; the
		// execution owns its own lifetime.
		o.run(context.Background(), def, execution, startIndex)
	}()
}

// run drives one execution forward from startIndex. The execution pointer is
// the authoritative in-memory record; all mutations happen here or in the
// rollback path, guarded by o.mu.
func (o *Orchestrator) run(ctx context.Context, def *Definition, execution *Execution, startIndex int) {
	sagaID := execution.SagaID
	start := time.Now()

	spanCtx, span := sagaTracer().Start(ctx, spanSagaExecute,
		trace.WithAttributes(
			attribute.String("saga.id", sagaID),
			attribute.String("saga.definition_id", def.ID),
		))
	defer span.End()

	defer o.metrics.DecActiveSagas()

	for i := startIndex; i < len(def.Steps); i++ {
		step := def.Steps[i]

		if o.cancelRequested(sagaID) {
			o.publish(Event{
				Type:          EventSagaCancelled,
				SagaID:        sagaID,
				DefinitionID:  def.ID,
				CorrelationID: execution.Context.CorrelationID,
				Timestamp:     time.Now().UTC(),
			})
			o.logger.Info("saga cancelled", "saga_id", sagaID, "next_step", step.ID)
			o.rollback(spanCtx, def, execution, fmt.Errorf("saga cancelled before step %s", step.ID))
			o.recordOutcome(execution, start)
			return
		}

		o.mu.Lock()
		execution.CurrentStepIndex = i
		execution.Context.CurrentStep = step.ID
		o.mu.Unlock()

		// Persist before the step so a crash resumes here, never past an
		// unrecorded side effect.
		if err := o.persist(spanCtx, execution); err != nil {
			o.failSaga(spanCtx, def, execution, err)
			o.recordOutcome(execution, start)
			span.SetStatus(codes.Error, err.Error())
			return
		}

		o.publish(Event{
			Type:          EventStepStarted,
			SagaID:        sagaID,
			DefinitionID:  def.ID,
			StepID:        step.ID,
			CorrelationID: execution.Context.CorrelationID,
			Timestamp:     time.Now().UTC(),
		})

		result, err := o.executor.Execute(spanCtx, execution.Context, step)
		if err != nil {
			o.mu.Lock()
			execution.SetFailure(step.ID, err)
			o.mu.Unlock()
			o.publish(Event{
				Type:          EventStepFailed,
				SagaID:        sagaID,
				DefinitionID:  def.ID,
				StepID:        step.ID,
				Error:         err.Error(),
				CorrelationID: execution.Context.CorrelationID,
				Timestamp:     time.Now().UTC(),
			})
			o.logger.Error("saga step failed",
				"saga_id", sagaID,
				"step_id", step.ID,
				"critical", step.Critical,
				"error", err)
			o.rollback(spanCtx, def, execution, err)
			o.recordOutcome(execution, start)
			span.SetStatus(codes.Error, err.Error())
			return
		}

		o.mu.Lock()
		execution.Context.StepResults[step.ID] = result
		execution.MarkStepCompleted(step.ID)
		o.mu.Unlock()

		if err := o.persist(spanCtx, execution); err != nil {
			o.failSaga(spanCtx, def, execution, err)
			o.recordOutcome(execution, start)
			span.SetStatus(codes.Error, err.Error())
			return
		}

		o.publish(Event{
			Type:          EventStepCompleted,
			SagaID:        sagaID,
			DefinitionID:  def.ID,
			StepID:        step.ID,
			Details:       map[string]any{"result": result},
			CorrelationID: execution.Context.CorrelationID,
			Timestamp:     time.Now().UTC(),
		})
	}

	o.mu.Lock()
	execution.Context.CurrentStep = ""
	transitionErr := execution.TransitionTo(StatusCompleted)
	o.mu.Unlock()
	if transitionErr != nil {
		o.failSaga(spanCtx, def, execution, transitionErr)
		o.recordOutcome(execution, start)
		return
	}

	if err := o.persist(spanCtx, execution); err != nil {
		o.logger.Error("saga completed but final persist failed",
			"saga_id", sagaID,
			"error", err)
	}

	o.publish(Event{
		Type:          EventSagaCompleted,
		SagaID:        sagaID,
		DefinitionID:  def.ID,
		Status:        StatusCompleted,
		CorrelationID: execution.Context.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Info("saga completed",
		"saga_id", sagaID,
		"steps", len(execution.CompletedSteps),
		"duration", time.Since(start))

	o.runHook(spanCtx, def.OnComplete, execution, "on_complete")
	o.recordOutcome(execution, start)
}

// rollback transitions the execution to compensating, runs the reverse pass
// and lands it in compensated. cause is the error that triggered rollback.
func (o *Orchestrator) rollback(ctx context.Context, def *Definition, execution *Execution, cause error) {
	sagaID := execution.SagaID

	o.mu.Lock()
	if execution.Status == StatusRunning {
		if err := execution.TransitionTo(StatusCompensating); err != nil {
			o.mu.Unlock()
			o.failSaga(ctx, def, execution, err)
			return
		}
	}
	if execution.Error == "" && cause != nil {
		execution.Error = cause.Error()
	}
	o.mu.Unlock()

	if err := o.persist(ctx, execution); err != nil {
		o.failSaga(ctx, def, execution, err)
		return
	}

	o.publish(Event{
		Type:          EventCompensationStarted,
		SagaID:        sagaID,
		DefinitionID:  def.ID,
		Status:        StatusCompensating,
		Error:         execution.Error,
		CorrelationID: execution.Context.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Info("saga compensation started",
		"saga_id", sagaID,
		"completed_steps", len(execution.CompletedSteps))

	o.compensator.Compensate(ctx, def, execution)

	o.mu.Lock()
	transitionErr := execution.TransitionTo(StatusCompensated)
	o.mu.Unlock()
	if transitionErr != nil {
		o.failSaga(ctx, def, execution, transitionErr)
		return
	}

	if err := o.persist(ctx, execution); err != nil {
		o.logger.Error("saga compensated but final persist failed",
			"saga_id", sagaID,
			"error", err)
	}

	o.publish(Event{
		Type:          EventSagaCompensated,
		SagaID:        sagaID,
		DefinitionID:  def.ID,
		Status:        StatusCompensated,
		Error:         execution.Error,
		CorrelationID: execution.Context.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Info("saga compensated",
		"saga_id", sagaID,
		"compensated_steps", len(execution.CompensatedSteps),
		"compensation_errors", len(execution.CompensationErrors))

	o.runFailureHook(ctx, def, execution, cause)
}

// failSaga moves the execution straight to failed without compensation.
// Reserved for orchestrator-level faults: compensating on top of an
// unhealthy durability layer could corrupt state further.
func (o *Orchestrator) failSaga(ctx context.Context, def *Definition, execution *Execution, cause error) {
	fault := &OrchestratorFault{Op: "run", Err: cause}

	o.mu.Lock()
	execution.SetFailure(execution.Context.CurrentStep, fault)
	if execution.Status.CanTransitionTo(StatusFailed) {
		execution.Status = StatusFailed
		now := time.Now().UTC()
		execution.EndTime = &now
		execution.Metrics.ExecutionTime = now.Sub(execution.StartTime)
	}
	o.mu.Unlock()

	if err := o.persist(ctx, execution); err != nil {
		o.logger.Error("saga failed and persist failed",
			"saga_id", execution.SagaID,
			"error", err)
	}

	o.publish(Event{
		Type:          EventSagaFailed,
		SagaID:        execution.SagaID,
		DefinitionID:  execution.DefinitionID,
		Status:        StatusFailed,
		Error:         fault.Error(),
		CorrelationID: execution.Context.CorrelationID,
		Timestamp:     time.Now().UTC(),
	})
	o.logger.Error("saga failed",
		"saga_id", execution.SagaID,
		"error", fault)

	o.runFailureHook(ctx, def, execution, cause)
}

func (o *Orchestrator) runHook(ctx context.Context, hook HookFunc, execution *Execution, name string) {
	if hook == nil {
		return
	}
	if err := hook(ctx, execution.Context); err != nil {
		o.logger.Warn("saga hook failed",
			"saga_id", execution.SagaID,
			"hook", name,
			"error", err)
	}
}

func (o *Orchestrator) runFailureHook(ctx context.Context, def *Definition, execution *Execution, cause error) {
	if def.OnFailed == nil {
		return
	}
	if err := def.OnFailed(ctx, execution.Context, cause); err != nil {
		o.logger.Warn("saga hook failed",
			"saga_id", execution.SagaID,
			"hook", "on_failed",
			"error", err)
	}
}

func (o *Orchestrator) recordOutcome(execution *Execution, start time.Time) {
	o.mu.RLock()
	status := string(execution.Status)
	o.mu.RUnlock()
	o.metrics.RecordSagaExecution(status)
	o.metrics.RecordSagaDuration(status, time.Since(start))
}

func (o *Orchestrator) cancelRequested(sagaID string) bool {
	o.mu.RLock()
	h := o.handles[sagaID]
	o.mu.RUnlock()
	return h != nil && h.cancelled.Load()
}

// persist writes the execution to the durable store before the caller acts
// on the transition. Terminal records carry the retention ttl so the backend
// purges them after the window.
func (o *Orchestrator) persist(ctx context.Context, execution *Execution) error {
	o.mu.RLock()
	snapshot := execution.clone()
	o.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return &OrchestratorFault{Op: "marshal execution", Err: err}
	}

	var ttl time.Duration
	if snapshot.Status.IsTerminal() {
		ttl = o.retention
	}
	if err := o.store.Put(ctx, executionKeyPrefix+snapshot.SagaID, data, ttl); err != nil {
		return &OrchestratorFault{Op: "persist execution", Err: err}
	}
	return nil
}

func (o *Orchestrator) loadExecution(ctx context.Context, sagaID string) (*Execution, error) {
	data, err := o.store.Get(ctx, executionKeyPrefix+sagaID)
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "saga execution", ID: sagaID}
		}
		return nil, &OrchestratorFault{Op: "load execution", Err: err}
	}

	var execution Execution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, &OrchestratorFault{Op: "decode execution", Err: err}
	}
	return &execution, nil
}

// pruneLoop evicts terminal executions from the in-memory map once they age
// past the retention window. The durable store handles its own ttl expiry.
func (o *Orchestrator) pruneLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.pruneTerminal(time.Now().UTC())
		case <-o.stopCh:
			return
		}
	}
}

func (o *Orchestrator) pruneTerminal(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for sagaID, execution := range o.executions {
		if !execution.Status.IsTerminal() || execution.EndTime == nil {
			continue
		}
		if now.Sub(*execution.EndTime) < o.retention {
			continue
		}
		delete(o.executions, sagaID)
		delete(o.handles, sagaID)
	}
}

func (o *Orchestrator) publish(event Event) {
	o.publisher.Publish(event)
}
