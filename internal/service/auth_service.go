package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/mailer"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
	"github.com/yassin-houari/bubbletech-pointage/pkg/utils"
)

const MinPasswordLen = 8

type AuthService struct {
	db    *gorm.DB
	jwter *auth.JWTer
	mail  *mailer.Dispatcher
	log   *zap.Logger
}

func NewAuthService(db *gorm.DB, j *auth.JWTer, mail *mailer.Dispatcher, l *zap.Logger) *AuthService {
	return &AuthService{db: db, jwter: j, mail: mail, log: l.Named("auth")}
}

type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Validation("Email et mot de passe requis")
	}
	u, err := repo.NewUserRepo(s.db.WithContext(ctx)).FindActiveByEmail(email)
	if err != nil {
		return nil, dbError("login", err)
	}
	// 账号不存在与密码错误返回同一提示
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.Unauthorized("Email ou mot de passe incorrect")
	}
	token, err := s.jwter.Issue(auth.IdentityOf(u))
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}
	return &LoginResult{Token: token, User: ViewOf(u)}, nil
}

// LoginWithCode 用 4 位码识别一个在职用户，不签发 token
func (s *AuthService) LoginWithCode(ctx context.Context, code string) (*UserView, error) {
	if !codeRe.MatchString(code) {
		return nil, domain.Validation("Code secret invalide (4 chiffres requis)")
	}
	u, err := repo.NewUserRepo(s.db.WithContext(ctx)).FindActiveByCode(code)
	if err != nil {
		return nil, dbError("login with code", err)
	}
	if u == nil {
		return nil, domain.Unauthorized("Code secret incorrect")
	}
	v := ViewOf(u)
	return &v, nil
}

// RequestPasswordReset 不论邮箱是否存在都返回成功
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Validation("Email requis")
	}
	ur := repo.NewUserRepo(s.db.WithContext(ctx))
	u, err := ur.FindActiveByEmail(email)
	if err != nil {
		return dbError("password reset", err)
	}
	if u == nil {
		s.log.Info("password reset for unknown email")
		return nil
	}
	pw, err := utils.RandomPassword()
	if err != nil {
		return domain.Internal("generate password", err)
	}
	hash, err := utils.HashPassword(pw)
	if err != nil {
		return domain.Internal("hash password", err)
	}
	if err := ur.Updates(u.ID, map[string]any{"password": hash, "doit_changer_mdp": true}); err != nil {
		return dbError("password reset", err)
	}
	s.mail.PasswordReset(mailer.Recipient{Email: u.Email, LastName: u.LastName, FirstName: u.FirstName}, pw)
	s.log.Info("password reset", zap.Uint("id", u.ID))
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.Validation("Ancien et nouveau mot de passe requis")
	}
	if len(newPassword) < MinPasswordLen {
		return domain.Validation("Le nouveau mot de passe doit contenir au moins %d caractères", MinPasswordLen)
	}
	ur := repo.NewUserRepo(s.db.WithContext(ctx))
	u, err := ur.FindByID(userID)
	if err != nil {
		return dbError("change password", err)
	}
	if u == nil {
		return domain.NotFound("Utilisateur non trouvé")
	}
	if !utils.CheckPassword(oldPassword, u.PasswordHash) {
		return domain.Unauthorized("Ancien mot de passe incorrect")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return domain.Internal("hash password", err)
	}
	if err := ur.Updates(userID, map[string]any{"password": hash, "doit_changer_mdp": false}); err != nil {
		return dbError("change password", err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*UserView, error) {
	u, err := repo.NewUserRepo(s.db.WithContext(ctx)).FindByID(userID)
	if err != nil {
		return nil, dbError("profile", err)
	}
	if u == nil {
		return nil, domain.NotFound("Utilisateur non trouvé")
	}
	v := ViewOf(u)
	return &v, nil
}
