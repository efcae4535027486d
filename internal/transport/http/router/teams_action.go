package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
)

type teamModule struct{ svc *service.TeamService }

func (m teamModule) Mount(_, private ez.EZ) {
	teams := private.Group("/equipes")

	type listIn struct {
		ManagerID uint `form:"manager_id"`
	}
	ez.RegisterAction(teams, ez.Action[listIn]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Roles:  adminOrManager,
		Handler: func(c *gin.Context, in *listIn) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			rows, err := m.svc.List(c.Request.Context(), me, in.ManagerID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"count": len(rows), "membres": rows}}, nil
		},
	})

	type addIn struct {
		ManagerID uint `json:"manager_id"`
		MemberID  uint `json:"membre_id"`
	}
	ez.RegisterAction(teams, ez.Action[addIn]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *addIn) (ez.Reply, error) {
			e, err := m.svc.AddMember(c.Request.Context(), in.ManagerID, in.MemberID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Status: http.StatusCreated, Message: "Membre ajouté à l'équipe", Data: gin.H{"equipe": e}}, nil
		},
	})

	ez.RegisterAction(teams, ez.Action[struct{}]{
		Method: http.MethodDelete,
		Path:   "/:manager_id/:membre_id",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			managerID, err := ez.ParamID(c, "manager_id")
			if err != nil {
				return ez.Reply{}, err
			}
			memberID, err := ez.ParamID(c, "membre_id")
			if err != nil {
				return ez.Reply{}, err
			}
			if err := m.svc.RemoveMember(c.Request.Context(), managerID, memberID); err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Membre retiré de l'équipe"}, nil
		},
	})
}
