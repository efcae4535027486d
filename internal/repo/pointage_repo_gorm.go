package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

type PointageRepo struct{ db *gorm.DB }

func NewPointageRepo(db *gorm.DB) *PointageRepo { return &PointageRepo{db: db} }

// PointageFilter 角色范围 + 查询条件
//   - SelfOnly:     只看 Caller 自己
//   - ManagerScope: Caller 本人 + 团队成员
//   - 两者都为 false: 不限（管理员）
type PointageFilter struct {
	Caller       uint
	SelfOnly     bool
	ManagerScope bool

	UserID uint
	From   string // YYYY-MM-DD，含
	To     string
	Status domain.PointageStatus
}

func (f PointageFilter) apply(db *gorm.DB) *gorm.DB {
	q := db
	switch {
	case f.SelfOnly:
		q = q.Where("pointages.user_id = ?", f.Caller)
	case f.ManagerScope:
		q = q.Where("(pointages.user_id = ? OR pointages.user_id IN (?))", f.Caller, TeamMemberIDs(db, f.Caller))
	}
	if f.UserID != 0 {
		q = q.Where("pointages.user_id = ?", f.UserID)
	}
	if f.From != "" {
		q = q.Where("pointages.date_pointage >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("pointages.date_pointage <= ?", f.To)
	}
	if f.Status != "" {
		q = q.Where("pointages.statut = ?", f.Status)
	}
	return q
}

func (r *PointageRepo) Create(p *domain.Pointage) error { return r.db.Create(p).Error }

// LatestOpen 用户最近一条进行中的记录（按 id 倒序取第一条）
func (r *PointageRepo) LatestOpen(userID uint) (*domain.Pointage, error) {
	var p domain.Pointage
	err := r.db.Where("user_id = ? AND statut = ?", userID, domain.StatusOpen).
		Order("id DESC").
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *PointageRepo) Close(p *domain.Pointage, at time.Time, worked int) error {
	res := r.db.Model(&domain.Pointage{}).Where("id = ?", p.ID).Updates(map[string]any{
		"checkout_at":           at,
		"statut":                domain.StatusClosed,
		"duree_travail_minutes": worked,
	})
	if res.Error != nil {
		return res.Error
	}
	p.CheckoutAt, p.Status, p.WorkedMinutes = &at, domain.StatusClosed, &worked
	return nil
}

func (r *PointageRepo) CreatePause(p *domain.Pause) error { return r.db.Create(p).Error }

// LatestOpenPause 最近一条未结束的休息
func (r *PointageRepo) LatestOpenPause(pointageID uint) (*domain.Pause, error) {
	var p domain.Pause
	err := r.db.Where("pointage_id = ? AND fin_at IS NULL", pointageID).
		Order("id DESC").
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *PointageRepo) ClosePause(p *domain.Pause, at time.Time, minutes int) error {
	err := r.db.Model(&domain.Pause{}).Where("id = ?", p.ID).Updates(map[string]any{
		"fin_at":        at,
		"duree_minutes": minutes,
	}).Error
	if err != nil {
		return err
	}
	p.EndAt, p.DurationMinutes = &at, &minutes
	return nil
}

// BreakMinutes 休息分钟合计；没有记录时为 0
func (r *PointageRepo) BreakMinutes(pointageID uint) (int, error) {
	var sum int64
	err := r.db.Model(&domain.Pause{}).
		Select("COALESCE(SUM(duree_minutes), 0)").
		Where("pointage_id = ?", pointageID).
		Row().Scan(&sum)
	return int(sum), err
}

// List 按日期、签到时间倒序；休息按开始时间排序
func (r *PointageRepo) List(f PointageFilter) ([]domain.Pointage, error) {
	rows := make([]domain.Pointage, 0)
	err := f.apply(r.db.Model(&domain.Pointage{})).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "nom", "prenom", "email", "role")
		}).
		Preload("Pauses", func(db *gorm.DB) *gorm.DB { return db.Order("debut_at, id") }).
		Order("pointages.date_pointage DESC, pointages.checkin_at DESC").
		Find(&rows).Error
	return rows, err
}

type PointageStats struct {
	Total        int64    `gorm:"column:total_pointages" json:"total_pointages"`
	Closed       int64    `gorm:"column:pointages_termines" json:"pointages_termines"`
	Open         int64    `gorm:"column:pointages_en_cours" json:"pointages_en_cours"`
	Incomplete   int64    `gorm:"column:pointages_incomplets" json:"pointages_incomplets"`
	AvgMinutes   *float64 `gorm:"column:duree_moyenne_minutes" json:"duree_moyenne_minutes"`
	TotalMinutes *float64 `gorm:"column:duree_totale_minutes" json:"duree_totale_minutes"`
}

func (r *PointageRepo) Stats(f PointageFilter) (PointageStats, error) {
	var s PointageStats
	err := f.apply(r.db.Model(&domain.Pointage{})).
		Select(`COUNT(*) AS total_pointages,
			COUNT(CASE WHEN pointages.statut = ? THEN 1 END) AS pointages_termines,
			COUNT(CASE WHEN pointages.statut = ? THEN 1 END) AS pointages_en_cours,
			COUNT(CASE WHEN pointages.statut = ? THEN 1 END) AS pointages_incomplets,
			AVG(pointages.duree_travail_minutes) AS duree_moyenne_minutes,
			SUM(pointages.duree_travail_minutes) AS duree_totale_minutes`,
			domain.StatusClosed, domain.StatusOpen, domain.StatusIncomplete).
		Scan(&s).Error
	return s, err
}
