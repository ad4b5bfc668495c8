package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/jobs"
)

// NotificationJobType tags notification jobs on the queue.
const NotificationJobType = "notification"

type notificationDispatcher interface {
	TryEnqueue(job jobs.Job) error
}

type messageInserter interface {
	Insert(ctx context.Context, message *models.Message) error
}

// NotificationService implements Notifier by enqueueing the notification. Delivery happens
// in NotificationWorker so workflow requests never wait on the document store. A full
// queue drops the notification with an error instead of blocking the caller.
type NotificationService struct {
	queue   notificationDispatcher
	enabled bool
	logger  *zap.Logger
}

// NewNotificationService constructs the service. A disabled service drops notifications.
func NewNotificationService(queue notificationDispatcher, enabled bool, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, enabled: enabled, logger: logger}
}

// Notify enqueues n for delivery.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) error {
	if !s.enabled || s.queue == nil {
		return nil
	}
	if strings.TrimSpace(n.RecipientID) == "" {
		return fmt.Errorf("notification without recipient")
	}
	return s.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: NotificationJobType, Payload: n})
}

// NotificationWorker stores queued notifications as messages addressed to the recipient.
type NotificationWorker struct {
	store  messageInserter
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(store messageInserter, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{store: store, logger: logger, now: time.Now}
}

// Handle processes a queue job.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		w.logger.Sugar().Errorw("unexpected notification payload", "job_id", job.ID, "type", fmt.Sprintf("%T", job.Payload))
		return nil
	}
	msg := &models.Message{
		Kind:       models.MessageKindNotification,
		SenderID:   "system",
		SenderName: "Campus",
		SenderRole: models.RoleAdmin,
		TargetType: models.MessageTargetUser,
		TargetUser: n.RecipientID,
		Subject:    n.Subject,
		Body:       n.Body,
		ReadBy:     []string{},
		Resource:   n.Resource,
		ResourceID: n.ResourceID,
		CreatedAt:  w.now().UTC(),
	}
	if err := w.store.Insert(ctx, msg); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	w.logger.Debug("notification delivered",
		zap.String("recipient", n.RecipientID),
		zap.String("resource", n.Resource),
		zap.String("resource_id", n.ResourceID),
	)
	return nil
}
