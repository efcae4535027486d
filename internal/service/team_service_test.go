package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

func TestTeamMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewTeamService(db)
	ctx := context.Background()
	mgr := seedUser(t, db, domain.RoleManager, "m@bt.io", "1000")
	p := seedUser(t, db, domain.RolePersonnel, "p@bt.io", "1001")
	admin := seedUser(t, db, domain.RoleAdmin, "a@bt.io", "1002")

	e, err := svc.AddMember(ctx, mgr.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, e.MemberID)

	_, err = svc.AddMember(ctx, mgr.ID, p.ID)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	_, err = svc.AddMember(ctx, p.ID, mgr.ID)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = svc.AddMember(ctx, mgr.ID, 9999)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	rows, err := svc.List(ctx, identity(mgr), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Member)
	assert.Equal(t, "p@bt.io", rows[0].Member.Email)

	_, err = svc.List(ctx, identity(mgr), admin.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
	_, err = svc.List(ctx, identity(admin), 0)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	rows, err = svc.List(ctx, identity(admin), mgr.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	_, err = svc.List(ctx, identity(p), 0)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	require.NoError(t, svc.RemoveMember(ctx, mgr.ID, p.ID))
	assert.True(t, domain.IsKind(svc.RemoveMember(ctx, mgr.ID, p.ID), domain.KindNotFound))
}
