package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viajora/leadnotify/internal/domain"
	"github.com/viajora/leadnotify/internal/queue"
	"github.com/viajora/leadnotify/internal/template"
	"go.uber.org/zap"
)

const defaultAnalyticsRefreshInterval = 30 * time.Second

// JobQueue is the queue surface the façade depends on.
type JobQueue interface {
	Enqueue(payload domain.Payload, opts queue.EnqueueOptions) (string, error)
	Stats() queue.Stats
	Job(id string) (*domain.Job, error)
	Retry(id string) bool
}

// Options tune a single notification send.
type Options struct {
	Priority    domain.Priority
	Delay       time.Duration
	Provider    string
	MaxAttempts int
	Tags        []string
	// DisableTracking skips creating a tracking record for fire-and-forget
	// sends.
	DisableTracking bool
}

// Result is the synchronous outcome of a send call. Success means the job
// was accepted; delivery itself is asynchronous and observable through the
// tracking record or job id.
type Result struct {
	Success  bool
	JobID    string
	Tracking *domain.TrackingRecord
	Err      error
}

// CompleteLeadResult reports the admin and customer halves of a full lead
// notification.
type CompleteLeadResult struct {
	Success  bool
	Admin    Result
	Customer Result
}

// NotificationService maps domain events onto queue jobs using registered
// templates, tracks delivery status, and aggregates analytics. Construct it
// explicitly and pass it around; there is no package-level instance.
type NotificationService struct {
	registry    *template.Registry
	queue       JobQueue
	adminEmails []string
	logger      *zap.Logger

	refreshInterval time.Duration
	now             func() time.Time
	newTrackingID   func() string

	trackingMu sync.RWMutex
	tracking   map[string]*domain.TrackingRecord

	analyticsMu sync.Mutex
	analytics   analyticsState

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewNotificationService(
	registry *template.Registry,
	jobQueue JobQueue,
	adminEmails []string,
	refreshInterval time.Duration,
	logger *zap.Logger,
) (*NotificationService, error) {
	if registry == nil {
		return nil, fmt.Errorf("template registry is required")
	}
	if jobQueue == nil {
		return nil, fmt.Errorf("job queue is required")
	}
	if refreshInterval <= 0 {
		refreshInterval = defaultAnalyticsRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		registry:        registry,
		queue:           jobQueue,
		adminEmails:     adminEmails,
		logger:          logger,
		refreshInterval: refreshInterval,
		now:             time.Now,
		newTrackingID:   func() string { return "track_" + uuid.NewString() },
		tracking:        make(map[string]*domain.TrackingRecord),
		analytics:       newAnalyticsState(),
	}, nil
}

// SendNotification validates template data, enqueues exactly one job, and
// returns immediately. Validation failures enqueue nothing.
func (s *NotificationService) SendNotification(
	ctx context.Context,
	templateID string,
	recipients []string,
	data map[string]any,
	opts *Options,
) Result {
	if opts == nil {
		opts = &Options{}
	}

	tmpl, err := s.registry.Get(templateID)
	if err != nil {
		s.recordError(templateID, joinRecipients(recipients), err)
		return Result{Success: false, Err: err}
	}

	if missing := tmpl.MissingFields(data); len(missing) > 0 {
		err := &domain.MissingFieldsError{TemplateID: tmpl.ID, Fields: missing}
		s.recordError(tmpl.ID, joinRecipients(recipients), err)
		return Result{Success: false, Err: err}
	}

	trackingID := s.newTrackingID()
	merged := template.MergeData(tmpl.DefaultData, data)
	merged["_trackingId"] = trackingID

	subject, err := template.Expand(tmpl.Subject, merged)
	if err != nil {
		s.recordError(tmpl.ID, joinRecipients(recipients), err)
		return Result{Success: false, Err: err}
	}

	priority := opts.Priority
	if priority == "" {
		priority = tmpl.Priority
	}

	payload := domain.Payload{
		To:           recipients,
		Subject:      subject,
		TemplateID:   tmpl.ID,
		TemplateData: merged,
		Provider:     opts.Provider,
		Tags:         mergeTags(tmpl.Tags, opts.Tags),
	}

	jobID, err := s.queue.Enqueue(payload, queue.EnqueueOptions{
		Priority:    priority,
		Delay:       opts.Delay,
		MaxAttempts: opts.MaxAttempts,
		Type:        tmpl.Type,
	})
	if err != nil {
		s.recordError(tmpl.ID, joinRecipients(recipients), err)
		return Result{Success: false, Err: err}
	}

	record := &domain.TrackingRecord{
		ID:         trackingID,
		Recipient:  joinRecipients(recipients),
		TemplateID: tmpl.ID,
		JobID:      jobID,
		CreatedAt:  s.now(),
		Status:     domain.TrackingQueued,
	}
	if !opts.DisableTracking {
		s.trackingMu.Lock()
		s.tracking[trackingID] = record
		s.trackingMu.Unlock()
	}

	s.recordQueued(tmpl.ID)
	s.logger.Info("notification queued",
		zap.String("template", tmpl.ID),
		zap.String("jobId", jobID),
		zap.String("trackingId", trackingID),
		zap.String("priority", priority.String()),
	)

	return Result{Success: true, JobID: jobID, Tracking: record}
}

// SendLeadAdminAlert fans the lead out to every configured admin address,
// one job per address. The composite succeeds when at least one admin email
// was accepted.
func (s *NotificationService) SendLeadAdminAlert(ctx context.Context, lead domain.Lead, opts *Options) Result {
	if len(s.adminEmails) == 0 {
		err := fmt.Errorf("no admin emails configured")
		s.recordError(template.LeadAdminTemplateID, "", err)
		return Result{Success: false, Err: err}
	}

	adminOpts := Options{Priority: domain.PriorityHigh, Tags: []string{"lead", "admin", "notification"}}
	if opts != nil {
		adminOpts.Delay = opts.Delay
		adminOpts.Provider = opts.Provider
		adminOpts.MaxAttempts = opts.MaxAttempts
	}

	data := lead.TemplateData()

	var first Result
	successes := 0
	failures := 0
	for _, email := range s.adminEmails {
		result := s.SendNotification(ctx, template.LeadAdminTemplateID, []string{email}, data, &adminOpts)
		if result.Success {
			if successes == 0 {
				first = result
			}
			successes++
			continue
		}
		failures++
		if first.Err == nil {
			first.Err = result.Err
		}
	}

	if successes == 0 {
		return Result{Success: false, Err: first.Err}
	}

	result := Result{Success: true, JobID: first.JobID, Tracking: first.Tracking}
	if failures > 0 {
		result.Err = fmt.Errorf("%d admin emails failed", failures)
	}
	return result
}

// SendCustomerConfirmation sends the welcome email to the lead itself.
func (s *NotificationService) SendCustomerConfirmation(ctx context.Context, lead domain.Lead, opts *Options) Result {
	customerOpts := Options{Priority: domain.PriorityNormal, Tags: []string{"lead", "customer", "confirmation"}}
	if opts != nil {
		customerOpts.Delay = opts.Delay
		customerOpts.Provider = opts.Provider
		customerOpts.MaxAttempts = opts.MaxAttempts
	}

	return s.SendNotification(ctx, template.LeadCustomerConfirmationID, []string{lead.Email}, lead.TemplateData(), &customerOpts)
}

// SendCompleteLeadNotification runs the admin alert and the customer
// confirmation concurrently. Partial success is success: a failed admin
// alert must not block the customer's confirmation, and vice versa.
func (s *NotificationService) SendCompleteLeadNotification(ctx context.Context, lead domain.Lead, opts *Options) CompleteLeadResult {
	var (
		wg       sync.WaitGroup
		admin    Result
		customer Result
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		admin = s.SendLeadAdminAlert(ctx, lead, opts)
	}()
	go func() {
		defer wg.Done()
		customer = s.SendCustomerConfirmation(ctx, lead, opts)
	}()
	wg.Wait()

	return CompleteLeadResult{
		Success:  admin.Success || customer.Success,
		Admin:    admin,
		Customer: customer,
	}
}

// NotificationStatus looks a tracking record up by id.
func (s *NotificationService) NotificationStatus(trackingID string) (*domain.TrackingRecord, error) {
	s.trackingMu.RLock()
	defer s.trackingMu.RUnlock()

	record, ok := s.tracking[strings.TrimSpace(trackingID)]
	if !ok {
		return nil, fmt.Errorf("%w: tracking record %q", domain.ErrNotFound, trackingID)
	}
	snapshot := *record
	return &snapshot, nil
}

func (s *NotificationService) RegisterTemplate(t domain.Template) error {
	return s.registry.Register(t)
}

func (s *NotificationService) Templates() []domain.Template {
	return s.registry.List()
}

func (s *NotificationService) QueueStats() queue.Stats {
	return s.queue.Stats()
}

func (s *NotificationService) RetryJob(id string) bool {
	return s.queue.Retry(id)
}

func (s *NotificationService) Job(id string) (*domain.Job, error) {
	return s.queue.Job(id)
}

// Start launches the periodic analytics refresher. Idempotent.
func (s *NotificationService) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(runCtx, done)
}

// Stop cancels the analytics refresher. Safe to call multiple times.
func (s *NotificationService) Stop() {
	s.lifecycleMu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// run owns the done channel it was handed: Stop nils the struct field before
// waiting, so closing through the field would race.
func (s *NotificationService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAnalytics()
		}
	}
}

func joinRecipients(recipients []string) string {
	return strings.Join(recipients, ", ")
}

func mergeTags(templateTags, optionTags []string) []string {
	if len(optionTags) == 0 {
		return templateTags
	}
	merged := make([]string, 0, len(templateTags)+len(optionTags))
	merged = append(merged, templateTags...)
	for _, tag := range optionTags {
		duplicate := false
		for _, existing := range merged {
			if existing == tag {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, tag)
		}
	}
	return merged
}
