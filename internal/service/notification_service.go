package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-progress-api/internal/models"
	"github.com/noah-isme/edu-progress-api/pkg/jobs"
)

const progressEventJob = "progress.status_changed"

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// NotificationConfig tunes the dispatcher worker pool.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	BufferSize int
	RetryDelay time.Duration
}

// NotificationDispatcher turns progress events into in-app notifications on a
// background queue so that syncing never waits on delivery.
type NotificationDispatcher struct {
	repo    notificationWriter
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewNotificationDispatcher constructs the dispatcher; Start must be called before publishing.
func NewNotificationDispatcher(repo notificationWriter, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{repo: repo, metrics: metrics, logger: logger, enabled: cfg.Enabled}
	d.queue = jobs.NewQueue("notifications", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnFailure: func(jobs.Job, error) {
			d.metrics.RecordNotification("failed")
		},
	})
	return d
}

// Start launches the workers when notifications are enabled.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	if d.enabled {
		d.queue.Start(ctx)
	}
}

// Stop drains the workers.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Publish queues the event without blocking. A full queue drops the event.
func (d *NotificationDispatcher) Publish(_ context.Context, event models.ProgressEvent) error {
	if !d.enabled {
		return nil
	}
	err := d.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: progressEventJob, Payload: event})
	if err != nil {
		d.metrics.RecordNotification("dropped")
		return err
	}
	d.metrics.RecordNotification("queued")
	return nil
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.ProgressEvent)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := d.repo.Create(ctx, NotificationFor(event)); err != nil {
		return err
	}
	d.metrics.RecordNotification("delivered")
	return nil
}

// NotificationFor renders the inbox entry for a status change.
func NotificationFor(event models.ProgressEvent) *models.Notification {
	message := fmt.Sprintf("Your progress status is now %s", event.Status)
	if event.PreviousStatus != "" {
		message = fmt.Sprintf("Your progress status changed from %s to %s", event.PreviousStatus, event.Status)
	}
	return &models.Notification{
		UserID:    event.StudentID,
		Title:     "Progress update",
		Message:   message,
		Type:      models.NotificationResult,
		CreatedAt: event.OccurredAt,
	}
}
