package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

// LookupRepo 部门/岗位字典表
type LookupRepo struct{ db *gorm.DB }

func NewLookupRepo(db *gorm.DB) *LookupRepo { return &LookupRepo{db: db} }

func (r *LookupRepo) ListDepartements() ([]domain.Departement, error) {
	rows := make([]domain.Departement, 0)
	err := r.db.Order("nom").Find(&rows).Error
	return rows, err
}

func (r *LookupRepo) FindDepartementByName(name string) (*domain.Departement, error) {
	var d domain.Departement
	err := r.db.First(&d, "nom = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &d, err
}

func (r *LookupRepo) DepartementExists(id uint) (bool, error) {
	var n int64
	err := r.db.Model(&domain.Departement{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *LookupRepo) CreateDepartement(d *domain.Departement) error { return r.db.Create(d).Error }

// ListPostes departementID 为 0 时返回全部
func (r *LookupRepo) ListPostes(departementID uint) ([]domain.Poste, error) {
	q := r.db.Order("nom")
	if departementID != 0 {
		q = q.Where("departement_id = ?", departementID)
	}
	rows := make([]domain.Poste, 0)
	err := q.Find(&rows).Error
	return rows, err
}

func (r *LookupRepo) FindPoste(name string, departementID uint) (*domain.Poste, error) {
	var p domain.Poste
	err := r.db.First(&p, "nom = ? AND departement_id = ?", name, departementID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *LookupRepo) FindPosteByID(id uint) (*domain.Poste, error) {
	var p domain.Poste
	err := r.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *LookupRepo) CreatePoste(p *domain.Poste) error { return r.db.Create(p).Error }
