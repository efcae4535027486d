package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
)

var transitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "pointage_transitions_total", Help: "Count of successful time-entry transitions"},
	[]string{"action"},
)

func init() { prometheus.MustRegister(transitionsTotal) }

const (
	ActionCheckIn    = "checkin"
	ActionStartBreak = "break_start"
	ActionEndBreak   = "break_end"
	ActionCheckOut   = "checkout"
)

// PointageService 签到 → 休息开始 → 休息结束 → 签退
// 每个操作一个事务：先查守卫条件，再写；任何失败整体回滚。
// 守卫没有行锁，同一用户并发签到可能都通过检查。
type PointageService struct {
	db    *gorm.DB
	log   *zap.Logger
	Clock Clock
}

func NewPointageService(db *gorm.DB, l *zap.Logger) *PointageService {
	return &PointageService{db: db, log: l.Named("pointage")}
}

// Target 解析操作对象：管理员/经理可代他人打卡（考勤机），普通员工只能操作自己
func (s *PointageService) Target(ctx context.Context, caller auth.Identity, requested uint) (uint, error) {
	if requested == 0 || requested == caller.ID {
		return caller.ID, nil
	}
	if !caller.Is(domain.RoleAdmin, domain.RoleManager) {
		return 0, domain.Forbidden("Vous ne pouvez pointer que pour vous-même")
	}
	u, err := repo.NewUserRepo(s.db.WithContext(ctx)).FindByID(requested)
	if err != nil {
		return 0, dbError("load user", err)
	}
	if u == nil {
		return 0, domain.NotFound("Utilisateur non trouvé")
	}
	if !u.Active {
		return 0, domain.Precondition("Utilisateur inactif")
	}
	return u.ID, nil
}

func (s *PointageService) CheckIn(ctx context.Context, userID uint) (*domain.Pointage, error) {
	var out *domain.Pointage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pr := repo.NewPointageRepo(tx)
		open, err := pr.LatestOpen(userID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.Conflict("Vous avez déjà une session en cours. Faites un check-out avant de commencer une nouvelle session.")
		}
		now := s.Clock.now()
		p := &domain.Pointage{
			UserID:    userID,
			Date:      domain.DayOf(now),
			CheckinAt: now,
			Status:    domain.StatusOpen,
			Pauses:    []domain.Pause{},
		}
		if err := pr.Create(p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, dbError("check-in", err)
	}
	s.record(ActionCheckIn, userID, out.ID)
	return out, nil
}

func (s *PointageService) StartBreak(ctx context.Context, userID uint) (*domain.Pause, error) {
	var out *domain.Pause
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pr := repo.NewPointageRepo(tx)
		open, err := pr.LatestOpen(userID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.Precondition("Aucune session en cours trouvée")
		}
		running, err := pr.LatestOpenPause(open.ID)
		if err != nil {
			return err
		}
		if running != nil {
			return domain.Conflict("Une pause est déjà en cours")
		}
		p := &domain.Pause{PointageID: open.ID, StartAt: s.Clock.now()}
		if err := pr.CreatePause(p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, dbError("start break", err)
	}
	s.record(ActionStartBreak, userID, out.PointageID)
	return out, nil
}

func (s *PointageService) EndBreak(ctx context.Context, userID uint) (*domain.Pause, error) {
	var out *domain.Pause
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pr := repo.NewPointageRepo(tx)
		open, err := pr.LatestOpen(userID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.Precondition("Aucune session en cours trouvée")
		}
		p, err := pr.LatestOpenPause(open.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.Precondition("Aucune pause en cours")
		}
		now := s.Clock.now()
		if err := pr.ClosePause(p, now, domain.Minutes(p.StartAt, now)); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, dbError("end break", err)
	}
	s.record(ActionEndBreak, userID, out.PointageID)
	return out, nil
}

// CheckOut 工作分钟 = floor(签退-签到) - 休息合计；不截断负数
func (s *PointageService) CheckOut(ctx context.Context, userID uint) (*domain.Pointage, error) {
	var out *domain.Pointage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pr := repo.NewPointageRepo(tx)
		open, err := pr.LatestOpen(userID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.Precondition("Aucune session en cours trouvée")
		}
		breaks, err := pr.BreakMinutes(open.ID)
		if err != nil {
			return err
		}
		now := s.Clock.now()
		worked := domain.Minutes(open.CheckinAt, now) - breaks
		if err := pr.Close(open, now, worked); err != nil {
			return err
		}
		out = open
		return nil
	})
	if err != nil {
		return nil, dbError("check-out", err)
	}
	s.record(ActionCheckOut, userID, out.ID)
	return out, nil
}

func (s *PointageService) record(action string, userID, pointageID uint) {
	transitionsTotal.WithLabelValues(action).Inc()
	s.log.Debug(action, zap.Uint("user_id", userID), zap.Uint("pointage_id", pointageID))
}
