package notifications

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

const DefaultLimit = 40

// ListResult is what one viewer sees.
type ListResult struct {
	Items       []models.Notification `json:"items"`
	UnreadCount int64                 `json:"unreadCount"`
}

const unreadBy = "NOT EXISTS (SELECT 1 FROM notification_reads r WHERE r.notification_id = notifications.id AND r.viewer = ?)"

// List returns the newest limit notifications with read state for viewer,
// and the viewer's unread count across all notifications.
func List(ctx context.Context, db *gorm.DB, viewer string, limit int) (ListResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	db = db.WithContext(ctx)

	items := make([]models.Notification, 0, limit)
	if err := db.Preload("Reads", func(q *gorm.DB) *gorm.DB { return q.Order("read_at ASC") }).
		Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return ListResult{}, err
	}
	for i := range items {
		items[i].ReadBy = make([]string, 0, len(items[i].Reads))
		for _, r := range items[i].Reads {
			items[i].ReadBy = append(items[i].ReadBy, r.Viewer)
		}
		items[i].Read = viewer != "" && slices.Contains(items[i].ReadBy, viewer)
	}

	var unread int64
	q := db.Model(&models.Notification{})
	if viewer != "" {
		q = q.Where(unreadBy, viewer)
	}
	if err := q.Count(&unread).Error; err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, UnreadCount: unread}, nil
}

// MarkRead adds viewer to the notification's readers. Repeating it is a no-op.
func MarkRead(ctx context.Context, db *gorm.DB, id uuid.UUID, viewer string) error {
	db = db.WithContext(ctx)
	var n models.Notification
	if err := db.Select("id").First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Notification")
		}
		return err
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.NotificationRead{
		NotificationID: id,
		Viewer:         viewer,
		ReadAt:         time.Now().UTC(),
	}).Error
}

// MarkAllRead marks every notification the viewer has not read yet and
// returns how many were newly marked.
func MarkAllRead(ctx context.Context, db *gorm.DB, viewer string) (int64, error) {
	var marked int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.Notification{}).Where(unreadBy, viewer).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		now := time.Now().UTC()
		rows := make([]models.NotificationRead, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, models.NotificationRead{NotificationID: id, Viewer: viewer, ReadAt: now})
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 200)
		marked = res.RowsAffected
		return res.Error
	})
	return marked, err
}

// ClearAll deletes every notification and its read marks.
func ClearAll(ctx context.Context, db *gorm.DB) (int64, error) {
	var cleared int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.NotificationRead{}).Error; err != nil {
			return err
		}
		res := all.Delete(&models.Notification{})
		cleared = res.RowsAffected
		return res.Error
	})
	return cleared, err
}

// Recent returns the newest n notifications without read state.
func Recent(ctx context.Context, db *gorm.DB, n int) ([]models.Notification, error) {
	out := make([]models.Notification, 0, n)
	err := db.WithContext(ctx).Order("created_at DESC").Limit(n).Find(&out).Error
	return out, err
}
