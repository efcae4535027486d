package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
)

type authModule struct {
	svc     *service.AuthService
	limiter gin.HandlerFunc
}

func (authModule) Priority() int { return 10 }

func (m authModule) Mount(public, private ez.EZ) {
	limited := public.Group("/auth", m.limiter)

	type loginIn struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	ez.RegisterAction(limited, ez.Action[loginIn]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (ez.Reply, error) {
			res, err := m.svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Connexion réussie", Data: gin.H{"token": res.Token, "user": res.User}}, nil
		},
	})

	type resetIn struct {
		Email string `json:"email"`
	}
	ez.RegisterAction(public, ez.Action[resetIn]{
		Method: http.MethodPost,
		Path:   "/auth/request-password-reset",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *resetIn) (ez.Reply, error) {
			if err := m.svc.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Si cet email existe, un nouveau mot de passe a été envoyé"}, nil
		},
	})

	// 需登录：已登录会话下识别第二个身份（打卡终端）
	type codeIn struct {
		SecretCode string `json:"code_secret"`
	}
	ez.RegisterAction(private.Group("/auth", m.limiter), ez.Action[codeIn]{
		Method: http.MethodPost,
		Path:   "/login-code",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *codeIn) (ez.Reply, error) {
			u, err := m.svc.LoginWithCode(c.Request.Context(), in.SecretCode)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Authentification réussie", Data: gin.H{"user": u}}, nil
		},
	})

	ez.RegisterAction(private, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/auth/profile",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			u, err := m.svc.Profile(c.Request.Context(), me.ID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"user": u}}, nil
		},
	})

	type changeIn struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	ez.RegisterAction(private, ez.Action[changeIn]{
		Method: http.MethodPost,
		Path:   "/auth/change-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *changeIn) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			if err := m.svc.ChangePassword(c.Request.Context(), me.ID, in.OldPassword, in.NewPassword); err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Mot de passe modifié avec succès"}, nil
		},
	})
}
