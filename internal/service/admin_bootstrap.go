package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
	"github.com/yassin-houari/bubbletech-pointage/pkg/utils"
)

// AdminInput 初始化管理员账号（HTTP 接口不允许创建 admin）
type AdminInput struct {
	Email      string
	Password   string
	LastName   string
	FirstName  string
	SecretCode string
}

// EnsureAdmin 邮箱不存在则创建管理员，已存在则提升为 admin 并重置密码
func (s *UserService) EnsureAdmin(ctx context.Context, in AdminInput) (*domain.User, bool, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, false, domain.Validation("Email requis")
	}
	if len(in.Password) < MinPasswordLen {
		return nil, false, domain.Validation("Le mot de passe doit contenir au moins %d caractères", MinPasswordLen)
	}
	if in.LastName == "" {
		in.LastName = "Admin"
	}
	if in.FirstName == "" {
		in.FirstName = "BubbleTech"
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, false, domain.Internal("hash password", err)
	}

	var (
		out     *domain.User
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ur := repo.NewUserRepo(tx)
		u, err := ur.FindByEmail(in.Email)
		if err != nil {
			return err
		}
		if u == nil {
			code, err := s.pickCode(ur, in.SecretCode, 0)
			if err != nil {
				return err
			}
			u = &domain.User{
				LastName:     in.LastName,
				FirstName:    in.FirstName,
				Email:        in.Email,
				PasswordHash: hash,
				Role:         domain.RoleAdmin,
				SecretCode:   code,
				Active:       true,
			}
			if err := ur.Create(u); err != nil {
				return err
			}
			out, created = u, true
			return nil
		}

		cols := map[string]any{"role": domain.RoleAdmin, "password": hash, "actif": true, "doit_changer_mdp": false}
		if in.SecretCode != "" {
			code, err := s.pickCode(ur, in.SecretCode, u.ID)
			if err != nil {
				return err
			}
			cols["code_secret"] = code
		}
		if err := ur.Updates(u.ID, cols); err != nil {
			return err
		}
		if err := ur.DropDetailsExcept(u.ID, domain.RoleAdmin); err != nil {
			return err
		}
		out, err = ur.FindByID(u.ID)
		return err
	})
	if err != nil {
		return nil, false, dbError("ensure admin", err)
	}
	s.log.Info("admin ensured", zap.Uint("id", out.ID), zap.Bool("created", created))
	return out, created, nil
}
