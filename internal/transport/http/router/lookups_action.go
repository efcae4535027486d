package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
)

type lookupModule struct{ svc *service.LookupService }

// createdStatus 新建返回 201，已存在返回 200
func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (m lookupModule) Mount(_, private ez.EZ) {
	ez.RegisterAction(private, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/departements",
		Binder: ez.BindNone,
		Roles:  adminOrManager,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			rows, err := m.svc.ListDepartements(c.Request.Context())
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"departements": rows}}, nil
		},
	})

	type deptIn struct {
		Name        string  `json:"nom"`
		Description *string `json:"description"`
	}
	ez.RegisterAction(private, ez.Action[deptIn]{
		Method: http.MethodPost,
		Path:   "/departements",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *deptIn) (ez.Reply, error) {
			d, created, err := m.svc.CreateDepartement(c.Request.Context(), in.Name, in.Description)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Status: createdStatus(created), Data: gin.H{"departement": d, "created": created}}, nil
		},
	})

	type posteQuery struct {
		DepartementID uint `form:"departement_id"`
	}
	ez.RegisterAction(private, ez.Action[posteQuery]{
		Method: http.MethodGet,
		Path:   "/postes",
		Binder: ez.BindQuery,
		Roles:  adminOrManager,
		Handler: func(c *gin.Context, in *posteQuery) (ez.Reply, error) {
			rows, err := m.svc.ListPostes(c.Request.Context(), in.DepartementID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"postes": rows}}, nil
		},
	})

	type posteIn struct {
		Name          string `json:"nom"`
		DepartementID uint   `json:"departement_id"`
	}
	ez.RegisterAction(private, ez.Action[posteIn]{
		Method: http.MethodPost,
		Path:   "/postes",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *posteIn) (ez.Reply, error) {
			p, created, err := m.svc.CreatePoste(c.Request.Context(), in.Name, in.DepartementID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Status: createdStatus(created), Data: gin.H{"poste": p, "created": created}}, nil
		},
	})
}
