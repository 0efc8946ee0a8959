// Package notifications records activity events for every mutation and tracks
// per-viewer read state.
package notifications

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/cache"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

// Severity maps an action to the notification type shown in the UI.
func Severity(action models.Action) models.NotificationType {
	switch action {
	case models.ActionCreated:
		return models.NotifySuccess
	case models.ActionDeleted:
		return models.NotifyDanger
	default:
		return models.NotifyInfo
	}
}

// Build renders the notification row for one event.
func Build(entity string, action models.Action, label, actor string) models.Notification {
	if actor == "" {
		actor = "System"
	}
	return models.Notification{
		Type:      Severity(action),
		Title:     fmt.Sprintf("%s %s", entity, action),
		Message:   fmt.Sprintf("%q was %s by %s", label, action, actor),
		CreatedBy: actor,
		Entity:    entity,
		Action:    action,
	}
}

// Emitter appends notifications after a mutation has committed.
type Emitter struct {
	db    *gorm.DB
	log   *logger.Logger
	m     *metrics.Metrics
	cache cache.Cache
}

func NewEmitter(db *gorm.DB, log *logger.Logger, m *metrics.Metrics, c cache.Cache) *Emitter {
	if c == nil {
		c = cache.Nop{}
	}
	return &Emitter{db: db, log: log.With("service", "Notifications"), m: m, cache: c}
}

// Emit records that actor performed action on the entity labelled label.
// It never fails the caller: errors are logged and counted. It also drops
// cached aggregations, since every mutation passes through here.
func (e *Emitter) Emit(ctx context.Context, entity string, action models.Action, label, actor string) {
	ctx = context.WithoutCancel(ctx)

	n := Build(entity, action, label, actor)
	if err := e.db.WithContext(ctx).Create(&n).Error; err != nil {
		e.log.Error("notification emit failed", "entity", entity, "action", action, "error", err)
		e.m.IncSecondaryFailure("notification")
	} else {
		e.m.IncNotification(entity, string(action))
	}

	e.Invalidate(ctx)
}

// Invalidate drops cached aggregations. Failures are logged and counted.
func (e *Emitter) Invalidate(ctx context.Context) {
	if err := e.cache.Invalidate(ctx); err != nil {
		e.log.Warn("aggregation cache invalidation failed", "error", err)
		e.m.IncSecondaryFailure("cache")
	}
}
