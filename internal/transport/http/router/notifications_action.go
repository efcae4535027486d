package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
)

type notificationModule struct{ svc *service.NotificationService }

func (m notificationModule) Mount(_, private ez.EZ) {
	n := private.Group("/notifications")

	type listIn struct {
		Unread string `form:"non_lues"`
	}
	ez.RegisterAction(n, ez.Action[listIn]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listIn) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			unread := false
			if in.Unread != "" {
				if unread, err = strconv.ParseBool(in.Unread); err != nil {
					return ez.Reply{}, domain.Validation("non_lues invalide")
				}
			}
			rows, err := m.svc.List(c.Request.Context(), me.ID, unread)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"count": len(rows), "notifications": rows}}, nil
		},
	})

	ez.RegisterAction(n, ez.Action[struct{}]{
		Method: http.MethodPut,
		Path:   "/:id/read",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return ez.Reply{}, err
			}
			if err := m.svc.MarkRead(c.Request.Context(), id, me.ID); err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Notification marquée comme lue"}, nil
		},
	})

	ez.RegisterAction(n, ez.Action[service.CreateNotificationInput]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *service.CreateNotificationInput) (ez.Reply, error) {
			out, err := m.svc.Create(c.Request.Context(), *in)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Status: http.StatusCreated, Data: gin.H{"notification": out}}, nil
		},
	})
}
