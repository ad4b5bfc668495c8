package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// DashboardCachePrefix namespaces cached dashboard payloads.
const DashboardCachePrefix = "dashboard:"

// AuditWriter persists audit trail records.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Notifier delivers workflow notifications to affected users.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// WorkflowEffects bundles what happens after a workflow transition commits: an audit
// record, dashboard cache invalidation, a transition metric and a notification. Every
// member is optional.
type WorkflowEffects struct {
	Audit    AuditWriter
	Cache    *CacheService
	Metrics  *MetricsService
	Notifier Notifier
	Logger   *zap.Logger
}

func (e WorkflowEffects) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e WorkflowEffects) audit(ctx context.Context, actorID, action, resource, resourceID string, before, after interface{}) {
	if e.Audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := e.Audit.CreateAuditLog(ctx, entry); err != nil {
		e.logger().Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func (e WorkflowEffects) invalidateDashboards(ctx context.Context) {
	if e.Cache == nil {
		return
	}
	_ = e.Cache.InvalidatePrefix(ctx, DashboardCachePrefix)
}

func (e WorkflowEffects) transition(entity, action string, err error) {
	e.Metrics.RecordTransition(entity, action, err)
}

func (e WorkflowEffects) notify(ctx context.Context, n models.Notification) {
	if e.Notifier == nil || n.RecipientID == "" {
		return
	}
	if err := e.Notifier.Notify(ctx, n); err != nil {
		e.logger().Warn("failed to publish notification", zap.String("recipient", n.RecipientID), zap.String("resource", n.Resource), zap.Error(err))
	}
}

// transitionRecord describes a committed transition for the shared side effects.
type transitionRecord struct {
	entity      string
	verb        string
	auditAction string
	actorID     string
	resourceID  string
	before      interface{}
	after       interface{}
}

// committed runs the post-commit side effects of a successful transition.
func (e WorkflowEffects) committed(ctx context.Context, rec transitionRecord, notes ...models.Notification) {
	e.transition(rec.entity, rec.verb, nil)
	e.audit(ctx, rec.actorID, rec.auditAction, rec.entity, rec.resourceID, rec.before, rec.after)
	e.invalidateDashboards(ctx)
	for _, n := range notes {
		e.notify(ctx, n)
	}
}

// storeError maps repository sentinels onto typed API errors.
func storeError(err error, entity, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrStaleVersion):
		return appErrors.Clone(appErrors.ErrVersionConflict, "")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, entity+" already exists")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, "failed to "+op)
}

func validationError(v interface{ Struct(interface{}) error }, payload interface{}, message string) error {
	if err := v.Struct(payload); err != nil {
		return appErrors.Validation(err, message)
	}
	return nil
}
