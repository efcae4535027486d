package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
)

type userModule struct{ svc *service.UserService }

var (
	adminOnly      = []domain.Role{domain.RoleAdmin}
	adminOrManager = []domain.Role{domain.RoleAdmin, domain.RoleManager}
)

func (m userModule) Mount(_, private ez.EZ) {
	users := private.Group("/users")

	ez.RegisterAction(users, ez.Action[service.CreateUserInput]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (ez.Reply, error) {
			res, err := m.svc.Create(c.Request.Context(), *in)
			if err != nil {
				return ez.Reply{}, err
			}
			data := gin.H{"userId": res.UserID, "codeSecret": res.SecretCode}
			if res.TemporaryPassword != "" {
				data["temporaryPassword"] = res.TemporaryPassword
			}
			return ez.Reply{Status: http.StatusCreated, Message: "Utilisateur créé avec succès", Data: data}, nil
		},
	})

	type listIn struct {
		Role   string `form:"role"`
		Active string `form:"actif"`
		Search string `form:"search"`
	}
	ez.RegisterAction(users, ez.Action[listIn]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Roles:  adminOrManager,
		Handler: func(c *gin.Context, in *listIn) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			q := service.UserQuery{Role: domain.Role(in.Role), Search: strings.TrimSpace(in.Search)}
			if in.Active != "" {
				b, err := strconv.ParseBool(in.Active)
				if err != nil {
					return ez.Reply{}, domain.Validation("actif invalide")
				}
				q.Active = &b
			}
			rows, err := m.svc.List(c.Request.Context(), me, q)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"count": len(rows), "users": rows}}, nil
		},
	})

	ez.RegisterAction(users, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Roles:  adminOrManager,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return ez.Reply{}, err
			}
			u, err := m.svc.Get(c.Request.Context(), id)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"user": u}}, nil
		},
	})

	ez.RegisterAction(users, ez.Action[service.UpdateUserInput]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Roles:  adminOrManager,
		Handler: func(c *gin.Context, in *service.UpdateUserInput) (ez.Reply, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return ez.Reply{}, err
			}
			u, err := m.svc.Update(c.Request.Context(), id, *in)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Utilisateur mis à jour avec succès", Data: gin.H{"user": u}}, nil
		},
	})

	ez.RegisterAction(users, ez.Action[struct{}]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return ez.Reply{}, err
			}
			if err := m.svc.Delete(c.Request.Context(), id); err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Utilisateur supprimé avec succès"}, nil
		},
	})
}
