package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viajora/leadnotify/internal/domain"
	"github.com/viajora/leadnotify/internal/observability"
	"github.com/viajora/leadnotify/internal/provider"
	"github.com/viajora/leadnotify/internal/ratelimit"
	"github.com/viajora/leadnotify/internal/template"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTickInterval = 2 * time.Second
	defaultBatchSize    = 5
	defaultMaxAttempts  = 3
	defaultBackoffBase  = time.Minute
)

// EnqueueOptions override per-job defaults at enqueue time.
type EnqueueOptions struct {
	Priority    domain.Priority
	Delay       time.Duration
	MaxAttempts int
	Type        domain.JobType
}

// Stats is a point-in-time snapshot of queue state.
type Stats struct {
	Pending           int
	Processing        int
	Completed         int
	Failed            int
	AvgProcessingTime time.Duration
	ErrorRate         float64
}

// Renderer produces the outbound message bodies for a job at dispatch time.
type Renderer interface {
	Render(templateID string, data map[string]any) (*template.Rendered, error)
}

// OutcomeRecorder receives a snapshot of every job that reaches a terminal
// state. Implementations must not block; recording failures are logged and
// never affect the job itself.
type OutcomeRecorder interface {
	Record(ctx context.Context, job domain.Job) error
}

// Config tunes the scheduler loop.
type Config struct {
	TickInterval       time.Duration
	BatchSize          int
	DefaultMaxAttempts int
	// BackoffBase scales the exponential retry delay: after the k-th failed
	// attempt the job waits BackoffBase * 2^k.
	BackoffBase time.Duration
	// From is the sender address stamped on outbound messages.
	From string
}

func (c *Config) applyDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.DefaultMaxAttempts <= 0 {
		c.DefaultMaxAttempts = defaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
}

// Queue holds notification jobs and drives their delivery. A single periodic
// timer selects due jobs by priority and dispatches a bounded batch
// concurrently; all retry policy lives here, never in the adapters.
type Queue struct {
	cfg      Config
	pool     *provider.Pool
	renderer Renderer
	limiter  ratelimit.RateLimiter
	recorder OutcomeRecorder
	logger   *zap.Logger
	metrics  *observability.Metrics

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	jobs     map[string]*domain.Job
	order    []string
	inflight map[string]struct{}

	sentCount       int
	processingTotal time.Duration

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

func New(pool *provider.Pool, renderer Renderer, cfg Config, logger *zap.Logger) (*Queue, error) {
	if pool == nil {
		return nil, fmt.Errorf("provider pool is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()

	return &Queue{
		cfg:      cfg,
		pool:     pool,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		jobs:     make(map[string]*domain.Job),
		inflight: make(map[string]struct{}),
	}, nil
}

func (q *Queue) SetRateLimiter(limiter ratelimit.RateLimiter) {
	if q == nil {
		return
	}
	q.limiter = limiter
}

func (q *Queue) SetOutcomeRecorder(recorder OutcomeRecorder) {
	if q == nil {
		return
	}
	q.recorder = recorder
}

func (q *Queue) SetMetrics(metrics *observability.Metrics) {
	if q == nil {
		return
	}
	q.metrics = metrics
}

// Enqueue stores a job and returns its id immediately. It never performs
// network I/O; delivery happens on a later scheduler tick.
func (q *Queue) Enqueue(payload domain.Payload, opts EnqueueOptions) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}

	priority := opts.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, opts.Priority)
	}
	jobType := opts.Type
	if jobType == "" {
		jobType = domain.TypeSystem
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.cfg.DefaultMaxAttempts
	}
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}

	now := q.now()
	job := &domain.Job{
		ID:          q.newID(),
		Type:        jobType,
		Priority:    priority,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		ScheduledAt: now.Add(delay),
		CreatedAt:   now,
		Status:      domain.StatusPending,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	q.mu.Unlock()

	q.metrics.IncJobEnqueued(priority.String())
	q.logger.Debug("job enqueued",
		zap.String("jobId", job.ID),
		zap.String("template", payload.TemplateID),
		zap.String("priority", priority.String()),
	)

	return job.ID, nil
}

// Start launches the scheduler loop. Calling Start on a running queue is a
// no-op.
func (q *Queue) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	q.lifecycleMu.Lock()
	defer q.lifecycleMu.Unlock()

	if q.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	q.cancel = cancel
	q.done = done

	go q.run(runCtx, done)
}

// Stop cancels the scheduler loop and waits for the current tick to finish.
// Safe to call multiple times and before Start.
func (q *Queue) Stop() {
	q.lifecycleMu.Lock()
	cancel := q.cancel
	done := q.done
	q.cancel = nil
	q.done = nil
	q.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// run owns the done channel it was handed: Stop nils the struct field before
// waiting, so closing through the field would race.
func (q *Queue) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(q.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.tick(ctx)
		}
	}
}

// tick runs one scheduling pass: claim due jobs by priority, dispatch the
// batch concurrently, wait for all of them.
func (q *Queue) tick(ctx context.Context) {
	batch := q.claimDue()
	if len(batch) == 0 {
		return
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for _, job := range batch {
		g.Go(func() error {
			q.process(groupCtx, job)
			return nil
		})
	}
	_ = g.Wait()
}

// claimDue selects pending jobs that are due, not in flight, and still have
// attempt budget. The in-flight marking happens inside the same critical
// section, so no job can be claimed by two overlapping ticks.
func (q *Queue) claimDue() []*domain.Job {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	eligible := make([]*domain.Job, 0, q.cfg.BatchSize)
	for _, id := range q.order {
		job := q.jobs[id]
		if job.Status != domain.StatusPending {
			continue
		}
		if job.ScheduledAt.After(now) {
			continue
		}
		if _, busy := q.inflight[id]; busy {
			continue
		}
		if job.Attempts >= job.MaxAttempts {
			continue
		}
		eligible = append(eligible, job)
	}

	// Arrival order is preserved within a priority class.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority.Weight() > eligible[j].Priority.Weight()
	})

	if len(eligible) > q.cfg.BatchSize {
		eligible = eligible[:q.cfg.BatchSize]
	}
	for _, job := range eligible {
		q.inflight[job.ID] = struct{}{}
	}
	return eligible
}

func (q *Queue) process(ctx context.Context, job *domain.Job) {
	defer q.release(job.ID)

	adapter, err := q.pool.Pick(job.Payload.Provider)
	if err != nil {
		// No healthy provider: the job waits for a later tick without
		// consuming an attempt.
		q.logger.Debug("no healthy provider, deferring job", zap.String("jobId", job.ID))
		return
	}
	providerName := adapter.Descriptor().Name

	if q.limiter != nil {
		allowed, limitErr := q.limiter.Allow(ctx, providerName)
		if limitErr != nil {
			q.logger.Warn("rate limiter check failed, deferring job",
				zap.String("jobId", job.ID),
				zap.Error(limitErr),
			)
			return
		}
		if !allowed {
			q.logger.Debug("rate limit reached, deferring job",
				zap.String("jobId", job.ID),
				zap.String("provider", providerName),
			)
			return
		}
	}

	attemptStart := q.now()
	q.mu.Lock()
	job.Attempts++
	job.LastAttemptAt = &attemptStart
	attempts := job.Attempts
	q.mu.Unlock()

	q.metrics.IncJobsInFlight()
	defer q.metrics.DecJobsInFlight()

	result, sendErr := q.dispatch(ctx, adapter, job)
	latency := q.now().Sub(attemptStart)
	q.metrics.ObserveSendDuration(providerName, latency)

	if sendErr == nil {
		q.completeJob(job, providerName, result, latency)
		return
	}

	q.logger.Warn("job attempt failed",
		zap.String("jobId", job.ID),
		zap.String("provider", providerName),
		zap.Int("attempt", attempts),
		zap.Int("maxAttempts", job.MaxAttempts),
		zap.Error(sendErr),
	)
	q.failAttempt(job, providerName, sendErr)
}

// dispatch renders the job and calls the adapter, recovering from any panic
// so a misbehaving adapter can never take the scheduler loop down.
func (q *Queue) dispatch(ctx context.Context, adapter provider.Adapter, job *domain.Job) (result *provider.SendResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &provider.Error{
				Provider:  adapter.Descriptor().Name,
				Message:   fmt.Sprintf("adapter panicked: %v", r),
				Transient: true,
			}
		}
	}()

	rendered, renderErr := q.renderer.Render(job.Payload.TemplateID, job.Payload.TemplateData)
	if renderErr != nil {
		return nil, fmt.Errorf("failed to render job content: %w", renderErr)
	}

	subject := job.Payload.Subject
	if subject == "" {
		subject = rendered.Subject
	}

	return adapter.Send(ctx, provider.Message{
		JobID:   job.ID,
		From:    q.cfg.From,
		To:      job.Payload.To,
		Subject: subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
		Tags:    job.Payload.Tags,
	})
}

func (q *Queue) completeJob(job *domain.Job, providerName string, result *provider.SendResult, latency time.Duration) {
	completedAt := q.now()

	q.mu.Lock()
	job.Status = domain.StatusSent
	job.CompletedAt = &completedAt
	job.Error = ""
	job.Metadata = domain.JobMetadata{
		Provider: providerName,
		Latency:  latency,
	}
	if result != nil {
		job.Metadata.MessageID = result.MessageID
	}
	q.sentCount++
	q.processingTotal += latency
	snapshot := *job
	q.mu.Unlock()

	q.metrics.IncJobSent(providerName)
	q.logger.Info("job sent",
		zap.String("jobId", job.ID),
		zap.String("provider", providerName),
		zap.String("messageId", snapshot.Metadata.MessageID),
		zap.Duration("latency", latency),
	)
	q.recordOutcome(snapshot)
}

func (q *Queue) failAttempt(job *domain.Job, providerName string, sendErr error) {
	now := q.now()

	q.mu.Lock()
	job.Error = sendErr.Error()

	if job.Attempts >= job.MaxAttempts {
		job.Status = domain.StatusFailed
		job.FailedAt = &now
		snapshot := *job
		q.mu.Unlock()

		reason := "permanent_error"
		if provider.IsTransient(sendErr) {
			reason = "retry_exhausted"
		}
		q.metrics.IncJobFailed(providerName, reason)
		q.logger.Error("job failed permanently",
			zap.String("jobId", job.ID),
			zap.String("provider", providerName),
			zap.Int("attempts", snapshot.Attempts),
			zap.Error(sendErr),
		)
		q.recordOutcome(snapshot)
		return
	}

	job.ScheduledAt = now.Add(q.backoffDelay(job.Attempts))
	q.mu.Unlock()

	q.metrics.IncRetryScheduled(providerName)
}

// backoffDelay returns BackoffBase * 2^attempts.
func (q *Queue) backoffDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 20 {
		attempts = 20
	}
	return q.cfg.BackoffBase * (1 << attempts)
}

func (q *Queue) release(jobID string) {
	q.mu.Lock()
	delete(q.inflight, jobID)
	q.mu.Unlock()
}

func (q *Queue) recordOutcome(job domain.Job) {
	if q.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.recorder.Record(ctx, job); err != nil {
		q.logger.Warn("failed to record job outcome",
			zap.String("jobId", job.ID),
			zap.Error(err),
		)
	}
}

// Job returns a copy of the job with the given id.
func (q *Queue) Job(id string) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job %q", domain.ErrNotFound, id)
	}
	snapshot := *job
	return &snapshot, nil
}

// Retry resets a permanently failed job so the scheduler picks it up again.
// Returns false without touching the job when it is not currently failed.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != domain.StatusFailed {
		return false
	}

	job.Status = domain.StatusPending
	job.Attempts = 0
	job.ScheduledAt = q.now()
	job.Error = ""
	job.FailedAt = nil
	return true
}

// Stats recomputes queue counters from the current job set, so the result
// always reflects the latest completed scheduling pass.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{Processing: len(q.inflight)}
	for _, job := range q.jobs {
		switch job.Status {
		case domain.StatusSent:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusPending:
			if _, busy := q.inflight[job.ID]; !busy {
				stats.Pending++
			}
		}
	}
	if q.sentCount > 0 {
		stats.AvgProcessingTime = q.processingTotal / time.Duration(q.sentCount)
	}
	if total := stats.Completed + stats.Failed; total > 0 {
		stats.ErrorRate = float64(stats.Failed) / float64(total) * 100
	}
	return stats
}
