package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// UserFilter 列表筛选；ManagerScope 非 0 时只返回该经理本人及其团队成员
type UserFilter struct {
	Role         domain.Role
	Active       *bool
	Search       string
	ManagerScope uint
}

func (r *UserRepo) Create(u *domain.User) error { return r.db.Create(u).Error }

// withDetails 预加载角色详情和岗位/部门
func (r *UserRepo) withDetails() *gorm.DB {
	return r.db.
		Preload("Personnel.Poste.Departement").
		Preload("Stagiaire").
		Preload("Manager")
}

func (r *UserRepo) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.withDetails().First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindActiveByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email = ? AND actif = ?", email, true).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindActiveByCode(code string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("code_secret = ? AND actif = ?", code, true).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

// EmailTaken 判断 email 是否被其他用户占用（exceptID 为 0 表示不排除）
func (r *UserRepo) EmailTaken(email string, exceptID uint) (bool, error) {
	return r.taken("email", email, exceptID)
}

func (r *UserRepo) CodeTaken(code string, exceptID uint) (bool, error) {
	return r.taken("code_secret", code, exceptID)
}

func (r *UserRepo) taken(col, val string, exceptID uint) (bool, error) {
	q := r.db.Model(&domain.User{}).Where(clause.Eq{Column: clause.Column{Name: col}, Value: val})
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *UserRepo) List(f UserFilter) ([]domain.User, error) {
	q := r.withDetails().Model(&domain.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("actif = ?", *f.Active)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("(nom LIKE ? OR prenom LIKE ? OR email LIKE ?)", like, like, like)
	}
	if f.ManagerScope != 0 {
		q = q.Where("(id = ? OR id IN (?))", f.ManagerScope, TeamMemberIDs(r.db, f.ManagerScope))
	}
	users := make([]domain.User, 0)
	err := q.Order("nom, prenom").Find(&users).Error
	return users, err
}

// Updates 只写入给定列
func (r *UserRepo) Updates(id uint, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return r.db.Model(&domain.User{}).Where("id = ?", id).Updates(cols).Error
}

func (r *UserRepo) Delete(id uint) (int64, error) {
	res := r.db.Where("id = ?", id).Delete(&domain.User{})
	return res.RowsAffected, res.Error
}

// SaveDetail upsert 角色详情行（按 user_id 冲突更新）
func (r *UserRepo) SaveDetail(d domain.RoleDetail) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(d).Error
}

// DropDetailsExcept 删除除 keep 以外的全部角色详情行
func (r *UserRepo) DropDetailsExcept(userID uint, keep domain.Role) error {
	for role, model := range map[domain.Role]any{
		domain.RolePersonnel: &domain.Personnel{},
		domain.RoleStagiaire: &domain.Stagiaire{},
		domain.RoleManager:   &domain.Manager{},
	} {
		if role == keep {
			continue
		}
		if err := r.db.Where("user_id = ?", userID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateDetail 按列局部更新当前角色的详情行
func (r *UserRepo) UpdateDetail(model domain.RoleDetail, userID uint, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return r.db.Model(model).Where("user_id = ?", userID).Updates(cols).Error
}
