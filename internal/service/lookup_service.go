package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/cache"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
)

const (
	keyDepartements = "departements"
	keyPostes       = "postes:"
)

// LookupService 部门/岗位：列表走缓存，创建是 get-or-create
type LookupService struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewLookupService(db *gorm.DB, c *cache.Cache, ttl time.Duration, l *zap.Logger) *LookupService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LookupService{db: db, cache: c, ttl: ttl, log: l.Named("lookup")}
}

func (s *LookupService) ListDepartements(ctx context.Context) ([]domain.Departement, error) {
	rows, err := cache.GetOrLoadJSON(s.cache, ctx, keyDepartements, s.ttl, func(ctx context.Context) ([]domain.Departement, error) {
		return repo.NewLookupRepo(s.db.WithContext(ctx)).ListDepartements()
	})
	if err != nil {
		return nil, dbError("list departements", err)
	}
	return rows, nil
}

// CreateDepartement 同名已存在时返回已有记录，created=false
func (s *LookupService) CreateDepartement(ctx context.Context, name string, description *string) (*domain.Departement, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, domain.Validation("Nom requis")
	}
	var (
		d       *domain.Departement
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		d, created, err = getOrCreateDepartement(repo.NewLookupRepo(tx), name, description)
		return err
	})
	if err != nil {
		return nil, false, dbError("create departement", err)
	}
	if created {
		s.Invalidate(ctx, 0)
	}
	return d, created, nil
}

// ListPostes departementID 为 0 时返回全部
func (s *LookupService) ListPostes(ctx context.Context, departementID uint) ([]domain.Poste, error) {
	key := fmt.Sprintf("%s%d", keyPostes, departementID)
	rows, err := cache.GetOrLoadJSON(s.cache, ctx, key, s.ttl, func(ctx context.Context) ([]domain.Poste, error) {
		return repo.NewLookupRepo(s.db.WithContext(ctx)).ListPostes(departementID)
	})
	if err != nil {
		return nil, dbError("list postes", err)
	}
	return rows, nil
}

func (s *LookupService) CreatePoste(ctx context.Context, name string, departementID uint) (*domain.Poste, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || departementID == 0 {
		return nil, false, domain.Validation("Nom et departement requis")
	}
	var (
		p       *domain.Poste
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lr := repo.NewLookupRepo(tx)
		ok, err := lr.DepartementExists(departementID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("Département non trouvé")
		}
		p, created, err = getOrCreatePoste(lr, name, departementID)
		return err
	})
	if err != nil {
		return nil, false, dbError("create poste", err)
	}
	if created {
		s.Invalidate(ctx, departementID)
	}
	return p, created, nil
}

// Invalidate 清掉部门列表和相关岗位列表；departementID 为 0 只清部门
func (s *LookupService) Invalidate(ctx context.Context, departementID uint) {
	if s == nil {
		return
	}
	keys := []string{keyDepartements}
	if departementID != 0 {
		keys = append(keys, keyPostes+"0", fmt.Sprintf("%s%d", keyPostes, departementID))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("cache invalidate", zap.Strings("keys", keys), zap.Error(err))
	}
}

func getOrCreateDepartement(lr *repo.LookupRepo, name string, description *string) (*domain.Departement, bool, error) {
	d, err := lr.FindDepartementByName(name)
	if err != nil || d != nil {
		return d, false, err
	}
	d = &domain.Departement{Name: name, Description: description}
	if err := lr.CreateDepartement(d); err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func getOrCreatePoste(lr *repo.LookupRepo, name string, departementID uint) (*domain.Poste, bool, error) {
	p, err := lr.FindPoste(name, departementID)
	if err != nil || p != nil {
		return p, false, err
	}
	p = &domain.Poste{Name: name, DepartementID: departementID}
	if err := lr.CreatePoste(p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// resolvePoste 岗位解析：优先 poste_id，其次 部门名+岗位名（不存在则创建）。
// 返回 nil 表示输入不足以确定岗位。
func resolvePoste(lr *repo.LookupRepo, posteID uint, deptName, posteName string) (*domain.Poste, bool, error) {
	if posteID != 0 {
		p, err := lr.FindPosteByID(posteID)
		if err != nil {
			return nil, false, err
		}
		if p == nil {
			return nil, false, domain.Validation("Poste introuvable")
		}
		return p, false, nil
	}
	deptName, posteName = strings.TrimSpace(deptName), strings.TrimSpace(posteName)
	if deptName == "" || posteName == "" {
		return nil, false, nil
	}
	d, dCreated, err := getOrCreateDepartement(lr, deptName, nil)
	if err != nil {
		return nil, false, err
	}
	p, pCreated, err := getOrCreatePoste(lr, posteName, d.ID)
	if err != nil {
		return nil, false, err
	}
	return p, dCreated || pCreated, nil
}
