package repo

import (
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

type TeamRepo struct{ db *gorm.DB }

func NewTeamRepo(db *gorm.DB) *TeamRepo { return &TeamRepo{db: db} }

// TeamMemberIDs 子查询：某经理团队的成员 id
func TeamMemberIDs(db *gorm.DB, managerID uint) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.Equipe{}).
		Select("membre_id").
		Where("manager_id = ?", managerID)
}

func (r *TeamRepo) Add(e *domain.Equipe) error { return r.db.Create(e).Error }

func (r *TeamRepo) Exists(managerID, memberID uint) (bool, error) {
	var n int64
	err := r.db.Model(&domain.Equipe{}).
		Where("manager_id = ? AND membre_id = ?", managerID, memberID).
		Count(&n).Error
	return n > 0, err
}

func (r *TeamRepo) Remove(managerID, memberID uint) (int64, error) {
	res := r.db.Where("manager_id = ? AND membre_id = ?", managerID, memberID).Delete(&domain.Equipe{})
	return res.RowsAffected, res.Error
}

func (r *TeamRepo) List(managerID uint) ([]domain.Equipe, error) {
	rows := make([]domain.Equipe, 0)
	err := r.db.Preload("Member").
		Where("manager_id = ?", managerID).
		Order("date_ajout, id").
		Find(&rows).Error
	return rows, err
}
