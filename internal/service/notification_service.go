package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
)

type NotificationService struct {
	db    *gorm.DB
	Clock Clock
}

func NewNotificationService(db *gorm.DB) *NotificationService { return &NotificationService{db: db} }

type CreateNotificationInput struct {
	UserID  uint                    `json:"user_id"`
	Title   string                  `json:"titre"`
	Message string                  `json:"message"`
	Type    domain.NotificationType `json:"type"`
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]domain.Notification, error) {
	rows, err := repo.NewNotificationRepo(s.db.WithContext(ctx)).ListForUser(userID, unreadOnly)
	if err != nil {
		return nil, dbError("list notifications", err)
	}
	return rows, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	ok, err := repo.NewNotificationRepo(s.db.WithContext(ctx)).MarkRead(id, userID, s.Clock.now())
	if err != nil {
		return dbError("mark notification read", err)
	}
	if !ok {
		return domain.NotFound("Notification non trouvée")
	}
	return nil
}

func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*domain.Notification, error) {
	in.Title, in.Message = strings.TrimSpace(in.Title), strings.TrimSpace(in.Message)
	if in.UserID == 0 || in.Title == "" || in.Message == "" {
		return nil, domain.Validation("user_id, titre et message requis")
	}
	if in.Type == "" {
		in.Type = domain.NotifInfo
	}
	if !in.Type.Valid() {
		return nil, domain.Validation("Type de notification invalide")
	}
	var out *domain.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.NewUserRepo(tx).FindByID(in.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("Utilisateur non trouvé")
		}
		n := &domain.Notification{UserID: in.UserID, Title: in.Title, Message: in.Message, Type: in.Type, SentAt: s.Clock.now()}
		if err := repo.NewNotificationRepo(tx).Create(n); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, dbError("create notification", err)
	}
	return out, nil
}

// AuditService 写操作日志
type AuditService struct{ db *gorm.DB }

func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{db: db} }

func (s *AuditService) Record(ctx context.Context, l *domain.AuditLog) error {
	return repo.NewAuditRepo(s.db.WithContext(ctx)).Create(l)
}
