package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/mailer"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
	"github.com/yassin-houari/bubbletech-pointage/pkg/utils"
)

var codeRe = regexp.MustCompile(`^\d{4}$`)

// maxCodeAttempts 随机生成 4 位码的尝试上限
const maxCodeAttempts = 64

type CreateUserInput struct {
	LastName       string      `json:"nom"`
	FirstName      string      `json:"prenom"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	Password       string      `json:"password"`
	SecretCode     string      `json:"code_secret"`
	MustChangePass *bool       `json:"doit_changer_mdp"`

	// personnel
	PosteID         uint     `json:"poste_id"`
	DepartementName string   `json:"departement_nom"`
	PosteName       string   `json:"poste_nom"`
	HireDate        string   `json:"date_embauche"`
	Salary          *float64 `json:"salaire"`

	// stagiaire
	StartDate    string `json:"date_debut"`
	EndDate      string `json:"date_fin"`
	SupervisorID *uint  `json:"encadrant_id"`
}

type CreateUserResult struct {
	UserID            uint   `json:"userId"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
	SecretCode        string `json:"codeSecret"`
}

// UpdateUserInput 局部更新：nil 字段不动
type UpdateUserInput struct {
	LastName       *string      `json:"nom"`
	FirstName      *string      `json:"prenom"`
	Email          *string      `json:"email"`
	Active         *bool        `json:"actif"`
	Role           *domain.Role `json:"role"`
	SecretCode     *string      `json:"code_secret"`
	Password       *string      `json:"password"`
	MustChangePass *bool        `json:"doit_changer_mdp"`

	PosteID         *uint    `json:"poste_id"`
	DepartementName *string  `json:"departement_nom"`
	PosteName       *string  `json:"poste_nom"`
	HireDate        *string  `json:"date_embauche"`
	Salary          *float64 `json:"salaire"`

	StartDate    *string `json:"date_debut"`
	EndDate      *string `json:"date_fin"`
	SupervisorID *uint   `json:"encadrant_id"`
}

type UserQuery struct {
	Role   domain.Role
	Active *bool
	Search string
}

type UserService struct {
	db      *gorm.DB
	lookups *LookupService
	mail    *mailer.Dispatcher
	log     *zap.Logger
	Clock   Clock
}

func NewUserService(db *gorm.DB, lookups *LookupService, mail *mailer.Dispatcher, l *zap.Logger) *UserService {
	return &UserService{db: db, lookups: lookups, mail: mail, log: l.Named("users")}
}

// detailInput 新建角色详情所需的字段
type detailInput struct {
	PosteID         uint
	DepartementName string
	PosteName       string
	HireDate        string
	Salary          *float64
	StartDate       string
	EndDate         string
	SupervisorID    *uint
}

func (in CreateUserInput) detail() detailInput {
	return detailInput{
		PosteID:         in.PosteID,
		DepartementName: in.DepartementName,
		PosteName:       in.PosteName,
		HireDate:        in.HireDate,
		Salary:          in.Salary,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		SupervisorID:    in.SupervisorID,
	}
}

func (in UpdateUserInput) detail() detailInput {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	d := detailInput{
		DepartementName: deref(in.DepartementName),
		PosteName:       deref(in.PosteName),
		HireDate:        deref(in.HireDate),
		Salary:          in.Salary,
		StartDate:       deref(in.StartDate),
		EndDate:         deref(in.EndDate),
		SupervisorID:    in.SupervisorID,
	}
	if in.PosteID != nil {
		d.PosteID = *in.PosteID
	}
	return d
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*CreateUserResult, error) {
	in.LastName, in.FirstName = strings.TrimSpace(in.LastName), strings.TrimSpace(in.FirstName)
	in.Email = strings.TrimSpace(in.Email)
	if in.LastName == "" || in.FirstName == "" || in.Email == "" || in.Role == "" {
		return nil, domain.Validation("Données manquantes")
	}
	switch in.Role {
	case domain.RolePersonnel, domain.RoleStagiaire, domain.RoleManager:
	default:
		return nil, domain.Validation("Rôle invalide")
	}

	var (
		res          CreateUserResult
		lookupsDirty uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ur := repo.NewUserRepo(tx)
		taken, err := ur.EmailTaken(in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflict("Cet email est déjà utilisé")
		}

		code, err := s.pickCode(ur, in.SecretCode, 0)
		if err != nil {
			return err
		}

		password, generated := in.Password, false
		if password == "" {
			if password, err = utils.RandomPassword(); err != nil {
				return domain.Internal("generate password", err)
			}
			generated = true
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			return domain.Internal("hash password", err)
		}
		mustChange := generated
		if !generated && in.MustChangePass != nil {
			mustChange = *in.MustChangePass
		}

		u := &domain.User{
			LastName:       in.LastName,
			FirstName:      in.FirstName,
			Email:          in.Email,
			PasswordHash:   hash,
			Role:           in.Role,
			SecretCode:     code,
			Active:         true,
			MustChangePass: mustChange,
		}
		if err := ur.Create(u); err != nil {
			return err
		}

		d, dirty, err := s.buildDetail(repo.NewLookupRepo(tx), u.ID, in.Role, in.detail())
		if err != nil {
			return err
		}
		if err := ur.SaveDetail(d); err != nil {
			return err
		}
		lookupsDirty = dirty

		res = CreateUserResult{UserID: u.ID, SecretCode: code}
		if generated {
			res.TemporaryPassword = password
		}
		return nil
	})
	if err != nil {
		return nil, dbError("create user", err)
	}
	if lookupsDirty != 0 {
		s.lookups.Invalidate(ctx, lookupsDirty)
	}

	s.mail.Welcome(mailer.Recipient{Email: in.Email, LastName: in.LastName, FirstName: in.FirstName}, res.TemporaryPassword, res.SecretCode)
	s.log.Info("user created", zap.Uint("id", res.UserID), zap.String("role", string(in.Role)))
	return &res, nil
}

// pickCode 校验调用方给的 4 位码，或随机生成一个未被占用的
func (s *UserService) pickCode(ur *repo.UserRepo, code string, self uint) (string, error) {
	if code != "" {
		if !codeRe.MatchString(code) {
			return "", domain.Validation("Le code secret doit contenir exactement 4 chiffres")
		}
		taken, err := ur.CodeTaken(code, self)
		if err != nil {
			return "", err
		}
		if taken {
			return "", domain.Conflict("Ce code secret est déjà utilisé")
		}
		return code, nil
	}
	for i := 0; i < maxCodeAttempts; i++ {
		c, err := utils.RandomCode()
		if err != nil {
			return "", domain.Internal("generate code", err)
		}
		taken, err := ur.CodeTaken(c, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return c, nil
		}
	}
	return "", domain.Conflict("Aucun code secret disponible")
}

// buildDetail 按角色构造详情行；返回的 uint 非 0 表示新建了部门/岗位（需清缓存）
func (s *UserService) buildDetail(lr *repo.LookupRepo, userID uint, role domain.Role, in detailInput) (domain.RoleDetail, uint, error) {
	switch role {
	case domain.RolePersonnel:
		// 先校验日期，避免无效请求留下新建的部门/职位
		if in.HireDate == "" {
			return nil, 0, domain.Validation("Poste et date d'embauche requis pour un personnel")
		}
		hired, err := domain.ParseDate(in.HireDate)
		if err != nil {
			return nil, 0, domain.Validation("date_embauche: %v", err)
		}
		p, created, err := resolvePoste(lr, in.PosteID, in.DepartementName, in.PosteName)
		if err != nil {
			return nil, 0, err
		}
		if p == nil {
			return nil, 0, domain.Validation("Poste et date d'embauche requis pour un personnel")
		}
		var dirty uint
		if created {
			dirty = p.DepartementID
		}
		return &domain.Personnel{UserID: userID, PosteID: p.ID, HireDate: hired, Salary: in.Salary}, dirty, nil

	case domain.RoleStagiaire:
		if in.StartDate == "" || in.EndDate == "" {
			return nil, 0, domain.Validation("Dates de début et fin requises pour un stagiaire")
		}
		start, err := domain.ParseDate(in.StartDate)
		if err != nil {
			return nil, 0, domain.Validation("date_debut: %v", err)
		}
		end, err := domain.ParseDate(in.EndDate)
		if err != nil {
			return nil, 0, domain.Validation("date_fin: %v", err)
		}
		if end < start {
			return nil, 0, domain.Validation("La date de fin doit être postérieure à la date de début")
		}
		return &domain.Stagiaire{UserID: userID, StartDate: start, EndDate: end, SupervisorID: in.SupervisorID}, 0, nil

	case domain.RoleManager:
		return &domain.Manager{UserID: userID, AppointedDate: domain.DayOf(s.Clock.now())}, 0, nil
	}
	return nil, 0, domain.Validation("Rôle invalide")
}

func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*UserView, error) {
	var (
		out          UserView
		lookupsDirty uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ur := repo.NewUserRepo(tx)
		u, err := ur.FindByID(id)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("Utilisateur non trouvé")
		}

		cols := map[string]any{}
		if v := trimmed(in.LastName); v != "" {
			cols["nom"] = v
		}
		if v := trimmed(in.FirstName); v != "" {
			cols["prenom"] = v
		}
		if v := trimmed(in.Email); v != "" && v != u.Email {
			taken, err := ur.EmailTaken(v, id)
			if err != nil {
				return err
			}
			if taken {
				return domain.Conflict("Cet email est déjà utilisé")
			}
			cols["email"] = v
		}
		if in.Active != nil {
			cols["actif"] = *in.Active
		}
		if in.SecretCode != nil && *in.SecretCode != u.SecretCode {
			if *in.SecretCode == "" {
				return domain.Validation("Le code secret doit contenir exactement 4 chiffres")
			}
			code, err := s.pickCode(ur, *in.SecretCode, id)
			if err != nil {
				return err
			}
			cols["code_secret"] = code
		}
		if in.Password != nil && *in.Password != "" {
			hash, err := utils.HashPassword(*in.Password)
			if err != nil {
				return domain.Internal("hash password", err)
			}
			cols["password"] = hash
			cols["doit_changer_mdp"] = true
		}
		if in.MustChangePass != nil {
			cols["doit_changer_mdp"] = *in.MustChangePass
		}

		roleChanged := in.Role != nil && *in.Role != u.Role
		if roleChanged {
			if !in.Role.Valid() || *in.Role == domain.RoleAdmin {
				return domain.Validation("Rôle invalide")
			}
			cols["role"] = *in.Role
		}
		if err := ur.Updates(id, cols); err != nil {
			return err
		}

		if roleChanged {
			lookupsDirty, err = s.switchRole(tx, id, *in.Role, in.detail())
		} else {
			lookupsDirty, err = s.patchDetail(tx, u, in)
		}
		if err != nil {
			return err
		}

		fresh, err := ur.FindByID(id)
		if err != nil {
			return err
		}
		out = ViewOf(fresh)
		return nil
	})
	if err != nil {
		return nil, dbError("update user", err)
	}
	if lookupsDirty != 0 {
		s.lookups.Invalidate(ctx, lookupsDirty)
	}
	return &out, nil
}

// switchRole 删除旧角色详情，按新角色 upsert；数据不足时跳过创建
func (s *UserService) switchRole(tx *gorm.DB, id uint, role domain.Role, in detailInput) (uint, error) {
	ur := repo.NewUserRepo(tx)
	if err := ur.DropDetailsExcept(id, role); err != nil {
		return 0, err
	}
	d, dirty, err := s.buildDetail(repo.NewLookupRepo(tx), id, role, in)
	if domain.IsKind(err, domain.KindValidation) {
		s.log.Warn("role changed without detail", zap.Uint("id", id), zap.String("role", string(role)), zap.Error(err))
		return dirty, nil
	}
	if err != nil {
		return 0, err
	}
	return dirty, ur.SaveDetail(d)
}

// patchDetail 角色未变时只更新给出的详情字段
func (s *UserService) patchDetail(tx *gorm.DB, u *domain.User, in UpdateUserInput) (uint, error) {
	ur := repo.NewUserRepo(tx)
	cols := map[string]any{}
	var dirty uint
	switch u.Role {
	case domain.RolePersonnel:
		if in.PosteID != nil || (in.DepartementName != nil && in.PosteName != nil) {
			d := in.detail()
			p, created, err := resolvePoste(repo.NewLookupRepo(tx), d.PosteID, d.DepartementName, d.PosteName)
			if err != nil {
				return 0, err
			}
			if p != nil {
				cols["poste_id"] = p.ID
				if created {
					dirty = p.DepartementID
				}
			}
		}
		if err := dateCol(cols, "date_embauche", in.HireDate); err != nil {
			return 0, err
		}
		if in.Salary != nil {
			cols["salaire"] = *in.Salary
		}
		return dirty, ur.UpdateDetail(&domain.Personnel{}, u.ID, cols)

	case domain.RoleStagiaire:
		if err := dateCol(cols, "date_debut", in.StartDate); err != nil {
			return 0, err
		}
		if err := dateCol(cols, "date_fin", in.EndDate); err != nil {
			return 0, err
		}
		if in.SupervisorID != nil {
			cols["encadrant_id"] = *in.SupervisorID
		}
		// 合并已存储的日期后再校验先后
		var start, end domain.Date
		if u.Stagiaire != nil {
			start, end = u.Stagiaire.StartDate, u.Stagiaire.EndDate
		}
		if v, ok := cols["date_debut"].(domain.Date); ok {
			start = v
		}
		if v, ok := cols["date_fin"].(domain.Date); ok {
			end = v
		}
		if start != "" && end != "" && end < start {
			return 0, domain.Validation("La date de fin doit être postérieure à la date de début")
		}
		return 0, ur.UpdateDetail(&domain.Stagiaire{}, u.ID, cols)
	}
	return 0, nil
}

func dateCol(cols map[string]any, col string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	d, err := domain.ParseDate(*v)
	if err != nil {
		return domain.Validation("%s: %v", col, err)
	}
	cols[col] = d
	return nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// List 经理只看到自己和团队成员
func (s *UserService) List(ctx context.Context, caller auth.Identity, q UserQuery) ([]UserView, error) {
	f := repo.UserFilter{Role: q.Role, Active: q.Active, Search: q.Search}
	if caller.Role == domain.RoleManager {
		f.ManagerScope = caller.ID
	}
	users, err := repo.NewUserRepo(s.db.WithContext(ctx)).List(f)
	if err != nil {
		return nil, dbError("list users", err)
	}
	return viewsOf(users), nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*UserView, error) {
	u, err := repo.NewUserRepo(s.db.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, dbError("get user", err)
	}
	if u == nil {
		return nil, domain.NotFound("Utilisateur non trouvé")
	}
	v := ViewOf(u)
	return &v, nil
}

// Delete 硬删除，详情/团队/打卡记录由外键级联删除
func (s *UserService) Delete(ctx context.Context, id uint) error {
	n, err := repo.NewUserRepo(s.db.WithContext(ctx)).Delete(id)
	if err != nil {
		return dbError("delete user", err)
	}
	if n == 0 {
		return domain.NotFound("Utilisateur non trouvé")
	}
	s.log.Info("user deleted", zap.Uint("id", id))
	return nil
}
