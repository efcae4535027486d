package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(n *domain.Notification) error { return r.db.Create(n).Error }

func (r *NotificationRepo) ListForUser(userID uint, unreadOnly bool) ([]domain.Notification, error) {
	q := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("lu = ?", false)
	}
	rows := make([]domain.Notification, 0)
	err := q.Order("date_envoi DESC, id DESC").Find(&rows).Error
	return rows, err
}

// MarkRead 只能标记自己的通知；false 表示不存在或不属于该用户
func (r *NotificationRepo) MarkRead(id, userID uint, at time.Time) (bool, error) {
	var n int64
	q := r.db.Model(&domain.Notification{}).Where("id = ? AND user_id = ?", id, userID)
	if err := q.Count(&n).Error; err != nil || n == 0 {
		return false, err
	}
	err := r.db.Model(&domain.Notification{}).
		Where("id = ? AND user_id = ? AND lu = ?", id, userID, false).
		Updates(map[string]any{"lu": true, "date_lecture": at}).Error
	return err == nil, err
}

type AuditRepo struct{ db *gorm.DB }

func NewAuditRepo(db *gorm.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Create(l *domain.AuditLog) error { return r.db.Create(l).Error }
