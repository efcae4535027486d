package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
)

// TeamService 经理与团队成员的关系
type TeamService struct{ db *gorm.DB }

func NewTeamService(db *gorm.DB) *TeamService { return &TeamService{db: db} }

func (s *TeamService) AddMember(ctx context.Context, managerID, memberID uint) (*domain.Equipe, error) {
	if managerID == 0 || memberID == 0 {
		return nil, domain.Validation("manager_id et membre_id requis")
	}
	if managerID == memberID {
		return nil, domain.Validation("Un manager ne peut pas être membre de sa propre équipe")
	}
	var out *domain.Equipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ur, tr := repo.NewUserRepo(tx), repo.NewTeamRepo(tx)
		m, err := ur.FindByID(managerID)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.NotFound("Manager non trouvé")
		}
		if m.Role != domain.RoleManager {
			return domain.Validation("L'utilisateur %d n'est pas un manager", managerID)
		}
		member, err := ur.FindByID(memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.NotFound("Membre non trouvé")
		}
		exists, err := tr.Exists(managerID, memberID)
		if err != nil {
			return err
		}
		if exists {
			return domain.Conflict("Ce membre fait déjà partie de l'équipe")
		}
		e := &domain.Equipe{ManagerID: managerID, MemberID: memberID}
		if err := tr.Add(e); err != nil {
			return err
		}
		e.Member = member
		out = e
		return nil
	})
	if err != nil {
		return nil, dbError("add team member", err)
	}
	return out, nil
}

func (s *TeamService) RemoveMember(ctx context.Context, managerID, memberID uint) error {
	n, err := repo.NewTeamRepo(s.db.WithContext(ctx)).Remove(managerID, memberID)
	if err != nil {
		return dbError("remove team member", err)
	}
	if n == 0 {
		return domain.NotFound("Membre non trouvé dans cette équipe")
	}
	return nil
}

// List 经理只能看自己的团队；管理员需指定 managerID
func (s *TeamService) List(ctx context.Context, caller auth.Identity, managerID uint) ([]domain.Equipe, error) {
	switch caller.Role {
	case domain.RoleManager:
		if managerID != 0 && managerID != caller.ID {
			return nil, domain.Forbidden("Accès refusé")
		}
		managerID = caller.ID
	case domain.RoleAdmin:
		if managerID == 0 {
			return nil, domain.Validation("manager_id requis")
		}
	default:
		return nil, domain.Forbidden("Accès refusé")
	}
	rows, err := repo.NewTeamRepo(s.db.WithContext(ctx)).List(managerID)
	if err != nil {
		return nil, dbError("list team", err)
	}
	return rows, nil
}
