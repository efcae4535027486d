package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	svc.Clock = newTestClock().Clock()
	ctx := context.Background()
	u := seedUser(t, db, domain.RolePersonnel, "p@bt.io", "1000")
	other := seedUser(t, db, domain.RolePersonnel, "o@bt.io", "1001")

	n, err := svc.Create(ctx, CreateNotificationInput{UserID: u.ID, Title: "Bienvenue", Message: "Bonjour"})
	require.NoError(t, err)
	assert.Equal(t, domain.NotifInfo, n.Type)
	_, err = svc.Create(ctx, CreateNotificationInput{UserID: u.ID, Title: "Alerte", Message: "x", Type: domain.NotifWarning})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateNotificationInput{UserID: u.ID, Title: "x", Message: "x", Type: "urgent"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = svc.Create(ctx, CreateNotificationInput{UserID: 9999, Title: "x", Message: "x"})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	all, err := svc.List(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.True(t, domain.IsKind(svc.MarkRead(ctx, n.ID, other.ID), domain.KindNotFound))
	require.NoError(t, svc.MarkRead(ctx, n.ID, u.ID))
	// 重复标记不报错
	require.NoError(t, svc.MarkRead(ctx, n.ID, u.ID))

	unread, err := svc.List(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Alerte", unread[0].Title)

	mine, err := svc.List(ctx, other.ID, false)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestAuditRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	u := seedUser(t, db, domain.RoleAdmin, "a@bt.io", "1000")

	require.NoError(t, svc.Record(context.Background(), &domain.AuditLog{UserID: &u.ID, Action: "POST /api/users", Details: "{}"}))

	// 用户删除后日志保留，user_id 置空
	require.NoError(t, db.Delete(&domain.User{}, u.ID).Error)
	var l domain.AuditLog
	require.NoError(t, db.First(&l).Error)
	assert.Nil(t, l.UserID)
	assert.Equal(t, "POST /api/users", l.Action)
}
