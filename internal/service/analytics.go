package service

import (
	"time"

	"github.com/viajora/leadnotify/internal/domain"
)

const maxRecentErrors = 100

// TemplateStats aggregates outcomes per template id.
type TemplateStats struct {
	Sent      int
	Delivered int
	Bounced   int
	Failed    int
}

// ProviderStats aggregates outcomes per provider. Performance is the success
// rate in percent.
type ProviderStats struct {
	Sent        int
	Delivered   int
	Performance float64
}

// ErrorEntry is one recent failure, kept in a bounded ring.
type ErrorEntry struct {
	Timestamp time.Time
	Error     string
	Template  string
	Recipient string
}

// Analytics is a point-in-time snapshot of notification outcomes.
type Analytics struct {
	TotalSent       int
	TotalDelivered  int
	TotalBounced    int
	TotalFailed     int
	DeliveryRate    float64
	BounceRate      float64
	AvgDeliveryTime time.Duration
	ByTemplate      map[string]TemplateStats
	ByProvider      map[string]ProviderStats
	RecentErrors    []ErrorEntry
}

type analyticsState struct {
	totalSent       int
	totalDelivered  int
	totalBounced    int
	totalFailed     int
	deliveryRate    float64
	bounceRate      float64
	avgDeliveryTime time.Duration
	byTemplate      map[string]*TemplateStats
	byProvider      map[string]*ProviderStats
	recentErrors    []ErrorEntry
}

func newAnalyticsState() analyticsState {
	return analyticsState{
		byTemplate: make(map[string]*TemplateStats),
		byProvider: make(map[string]*ProviderStats),
	}
}

// Analytics returns a copy of the current analytics snapshot.
func (s *NotificationService) Analytics() Analytics {
	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()

	snapshot := Analytics{
		TotalSent:       s.analytics.totalSent,
		TotalDelivered:  s.analytics.totalDelivered,
		TotalBounced:    s.analytics.totalBounced,
		TotalFailed:     s.analytics.totalFailed,
		DeliveryRate:    s.analytics.deliveryRate,
		BounceRate:      s.analytics.bounceRate,
		AvgDeliveryTime: s.analytics.avgDeliveryTime,
		ByTemplate:      make(map[string]TemplateStats, len(s.analytics.byTemplate)),
		ByProvider:      make(map[string]ProviderStats, len(s.analytics.byProvider)),
		RecentErrors:    make([]ErrorEntry, len(s.analytics.recentErrors)),
	}
	for id, stats := range s.analytics.byTemplate {
		snapshot.ByTemplate[id] = *stats
	}
	for name, stats := range s.analytics.byProvider {
		snapshot.ByProvider[name] = *stats
	}
	copy(snapshot.RecentErrors, s.analytics.recentErrors)
	return snapshot
}

func (s *NotificationService) recordQueued(templateID string) {
	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()
	s.templateStats(templateID).Sent++
}

func (s *NotificationService) recordError(templateID, recipient string, err error) {
	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()

	s.analytics.recentErrors = append(s.analytics.recentErrors, ErrorEntry{
		Timestamp: s.now(),
		Error:     err.Error(),
		Template:  templateID,
		Recipient: recipient,
	})
	if overflow := len(s.analytics.recentErrors) - maxRecentErrors; overflow > 0 {
		s.analytics.recentErrors = s.analytics.recentErrors[overflow:]
	}
}

// templateStats must be called with analyticsMu held.
func (s *NotificationService) templateStats(templateID string) *TemplateStats {
	stats, ok := s.analytics.byTemplate[templateID]
	if !ok {
		stats = &TemplateStats{}
		s.analytics.byTemplate[templateID] = stats
	}
	return stats
}

// providerStats must be called with analyticsMu held.
func (s *NotificationService) providerStats(name string) *ProviderStats {
	stats, ok := s.analytics.byProvider[name]
	if !ok {
		stats = &ProviderStats{}
		s.analytics.byProvider[name] = stats
	}
	return stats
}

// refreshAnalytics merges queue counters into the snapshot and settles
// tracking records whose jobs reached a terminal state.
func (s *NotificationService) refreshAnalytics() {
	stats := s.queue.Stats()

	s.settleTracking()

	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()

	s.analytics.totalSent = stats.Completed + stats.Failed
	s.analytics.totalDelivered = stats.Completed
	s.analytics.totalFailed = stats.Failed
	if s.analytics.totalSent > 0 {
		s.analytics.deliveryRate = float64(s.analytics.totalDelivered) / float64(s.analytics.totalSent) * 100
		s.analytics.bounceRate = float64(s.analytics.totalFailed) / float64(s.analytics.totalSent) * 100
	}
	s.analytics.avgDeliveryTime = stats.AvgProcessingTime
}

// settleTracking moves queued tracking records to their job's terminal
// state and feeds the per-provider counters.
func (s *NotificationService) settleTracking() {
	s.trackingMu.Lock()
	defer s.trackingMu.Unlock()

	for _, record := range s.tracking {
		if record.Status != domain.TrackingQueued {
			continue
		}

		job, err := s.queue.Job(record.JobID)
		if err != nil {
			continue
		}

		switch job.Status {
		case domain.StatusSent:
			record.Status = domain.TrackingSent
			s.analyticsMu.Lock()
			s.templateStats(record.TemplateID).Delivered++
			providerStats := s.providerStats(job.Metadata.Provider)
			providerStats.Sent++
			providerStats.Delivered++
			providerStats.Performance = float64(providerStats.Delivered) / float64(providerStats.Sent) * 100
			s.analyticsMu.Unlock()
		case domain.StatusFailed:
			record.Status = domain.TrackingFailed
			s.analyticsMu.Lock()
			s.templateStats(record.TemplateID).Failed++
			if job.Metadata.Provider != "" {
				providerStats := s.providerStats(job.Metadata.Provider)
				providerStats.Sent++
				providerStats.Performance = float64(providerStats.Delivered) / float64(providerStats.Sent) * 100
			}
			s.analytics.recentErrors = append(s.analytics.recentErrors, ErrorEntry{
				Timestamp: s.now(),
				Error:     job.Error,
				Template:  record.TemplateID,
				Recipient: record.Recipient,
			})
			if overflow := len(s.analytics.recentErrors) - maxRecentErrors; overflow > 0 {
				s.analytics.recentErrors = s.analytics.recentErrors[overflow:]
			}
			s.analyticsMu.Unlock()
		}
	}
}
