package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

func newPointageFixture(t *testing.T) (*PointageService, *testClock, *domain.User) {
	db := newTestDB(t)
	clk := newTestClock()
	svc := NewPointageService(db, nopLogger())
	svc.Clock = clk.Clock()
	u := seedUser(t, db, domain.RolePersonnel, "p@bt.io", "1111")
	return svc, clk, u
}

func openCount(t *testing.T, svc *PointageService, userID uint) int64 {
	var n int64
	require.NoError(t, svc.db.Model(&domain.Pointage{}).
		Where("user_id = ? AND statut = ?", userID, domain.StatusOpen).Count(&n).Error)
	return n
}

func TestCheckInCheckOutNoBreak(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	ctx := context.Background()

	p, err := svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, p.Status)
	assert.Equal(t, domain.Date("2024-03-11"), p.Date)
	assert.EqualValues(t, 1, openCount(t, svc, u.ID))

	clk.Advance(2*time.Hour + 15*time.Minute + 59*time.Second)
	out, err := svc.CheckOut(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, out.WorkedMinutes)
	assert.Equal(t, 135, *out.WorkedMinutes)
	assert.Equal(t, domain.StatusClosed, out.Status)
	assert.Zero(t, openCount(t, svc, u.ID))
}

func TestCheckOutSubtractsBreak(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	clk.Advance(3 * time.Hour)
	_, err = svc.StartBreak(ctx, u.ID)
	require.NoError(t, err)
	clk.Advance(45*time.Minute + 30*time.Second)
	pause, err := svc.EndBreak(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, pause.DurationMinutes)
	assert.Equal(t, 45, *pause.DurationMinutes)

	clk.Advance(4 * time.Hour)
	out, err := svc.CheckOut(ctx, u.ID)
	require.NoError(t, err)
	// 总时长 465 分钟，减去休息 45
	assert.Equal(t, 420, *out.WorkedMinutes)
}

func TestCheckInTwiceConflicts(t *testing.T) {
	svc, _, u := newPointageFixture(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindConflict), "got %v", err)
	assert.EqualValues(t, 1, openCount(t, svc, u.ID))
}

func TestMultipleSessionsPerDay(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.CheckIn(ctx, u.ID)
		require.NoError(t, err)
		clk.Advance(time.Hour)
		_, err = svc.CheckOut(ctx, u.ID)
		require.NoError(t, err)
		clk.Advance(30 * time.Minute)
	}
	var n int64
	svc.db.Model(&domain.Pointage{}).Where("user_id = ?", u.ID).Count(&n)
	assert.EqualValues(t, 2, n)
}

func TestStartBreakGuards(t *testing.T) {
	svc, _, u := newPointageFixture(t)
	ctx := context.Background()

	_, err := svc.StartBreak(ctx, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindPrecondition), "got %v", err)

	_, err = svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	_, err = svc.StartBreak(ctx, u.ID)
	require.NoError(t, err)
	_, err = svc.StartBreak(ctx, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindConflict), "got %v", err)
}

func TestEndBreakGuards(t *testing.T) {
	svc, _, u := newPointageFixture(t)
	ctx := context.Background()

	_, err := svc.EndBreak(ctx, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindPrecondition))

	_, err = svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	_, err = svc.EndBreak(ctx, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindPrecondition))
}

func TestCheckOutWithoutSession(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	clk.Advance(time.Hour)
	first, err := svc.CheckOut(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, u.ID)
	assert.True(t, domain.IsKind(err, domain.KindPrecondition), "got %v", err)

	var again domain.Pointage
	require.NoError(t, svc.db.First(&again, first.ID).Error)
	assert.Equal(t, *first.WorkedMinutes, *again.WorkedMinutes)
	assert.WithinDuration(t, *first.CheckoutAt, *again.CheckoutAt, time.Second)
}

func TestCheckOutAcrossMidnight(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	clk.t = time.Date(2024, 3, 11, 22, 0, 0, 0, time.UTC)
	ctx := context.Background()

	p, err := svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	clk.Advance(3 * time.Hour)
	out, err := svc.CheckOut(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Date("2024-03-11"), p.Date)
	assert.Equal(t, 180, *out.WorkedMinutes)
}

// 日期按 UTC 取日，不受服务器时区影响
func TestCheckInDateUsesUTC(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	brussels := time.FixedZone("CEST", 2*60*60)
	clk.t = time.Date(2024, 3, 12, 0, 30, 0, 0, brussels)

	p, err := svc.CheckIn(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Date("2024-03-11"), p.Date)
}

// 时钟回拨时工作分钟可以为负，不做截断
func TestCheckOutNegativeNotClamped(t *testing.T) {
	svc, clk, u := newPointageFixture(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	clk.Advance(-10 * time.Minute)
	out, err := svc.CheckOut(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, -10, *out.WorkedMinutes)
}

func TestTargetOverride(t *testing.T) {
	svc, _, staff := newPointageFixture(t)
	ctx := context.Background()
	mgr := seedUser(t, svc.db, domain.RoleManager, "m@bt.io", "2222")
	other := seedUser(t, svc.db, domain.RolePersonnel, "o@bt.io", "3333")

	id, err := svc.Target(ctx, identity(staff), 0)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, id)

	_, err = svc.Target(ctx, identity(staff), other.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	id, err = svc.Target(ctx, identity(mgr), other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, id)

	_, err = svc.Target(ctx, identity(mgr), 9999)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	require.NoError(t, svc.db.Model(other).Update("actif", false).Error)
	_, err = svc.Target(ctx, identity(mgr), other.ID)
	assert.True(t, domain.IsKind(err, domain.KindPrecondition))
}
