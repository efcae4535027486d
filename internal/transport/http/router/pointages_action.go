package router

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type pointageModule struct {
	svc     *service.PointageService
	reports *service.ReportService
}

// 打卡终端可代他人打卡：body 中可选 user_id
type targetIn struct {
	UserID uint `json:"user_id"`
}

type pointageQuery struct {
	UserID uint   `form:"user_id"`
	From   string `form:"date_debut"`
	To     string `form:"date_fin"`
	Status string `form:"statut"`
}

func (q pointageQuery) query() service.PointageQuery {
	return service.PointageQuery{UserID: q.UserID, From: q.From, To: q.To, Status: domain.PointageStatus(q.Status)}
}

func (m pointageModule) Mount(_, private ez.EZ) {
	p := private.Group("/pointages")

	ez.RegisterAction(p, ez.Action[targetIn]{
		Method: http.MethodPost,
		Path:   "/checkin",
		Binder: ez.BindOptionalJSON,
		Handler: func(c *gin.Context, in *targetIn) (ez.Reply, error) {
			uid, err := m.target(c, in.UserID)
			if err != nil {
				return ez.Reply{}, err
			}
			pt, err := m.svc.CheckIn(c.Request.Context(), uid)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Check-in enregistré avec succès", Data: gin.H{"pointage": pt}}, nil
		},
	})

	ez.RegisterAction(p, ez.Action[targetIn]{
		Method: http.MethodPost,
		Path:   "/checkout",
		Binder: ez.BindOptionalJSON,
		Handler: func(c *gin.Context, in *targetIn) (ez.Reply, error) {
			uid, err := m.target(c, in.UserID)
			if err != nil {
				return ez.Reply{}, err
			}
			pt, err := m.svc.CheckOut(c.Request.Context(), uid)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Check-out enregistré avec succès", Data: gin.H{"pointage": pt}}, nil
		},
	})

	ez.RegisterAction(p, ez.Action[struct{}]{
		Method: http.MethodPost,
		Path:   "/break/start",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			pause, err := m.svc.StartBreak(c.Request.Context(), me.ID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Pause commencée", Data: gin.H{"pause": pause}}, nil
		},
	})

	ez.RegisterAction(p, ez.Action[struct{}]{
		Method: http.MethodPost,
		Path:   "/break/end",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			pause, err := m.svc.EndBreak(c.Request.Context(), me.ID)
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Message: "Pause terminée", Data: gin.H{"pause": pause}}, nil
		},
	})

	ez.RegisterAction(p, ez.Action[pointageQuery]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *pointageQuery) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			rows, err := m.reports.List(c.Request.Context(), me, in.query())
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"count": len(rows), "pointages": rows}}, nil
		},
	})

	ez.RegisterAction(p, ez.Action[pointageQuery]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *pointageQuery) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			st, err := m.reports.Stats(c.Request.Context(), me, in.query())
			if err != nil {
				return ez.Reply{}, err
			}
			return ez.Reply{Data: gin.H{"stats": st}}, nil
		},
	})

	ez.RegisterAction(p, ez.Action[pointageQuery]{
		Method: http.MethodGet,
		Path:   "/export",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *pointageQuery) (ez.Reply, error) {
			me, err := ez.Caller(c)
			if err != nil {
				return ez.Reply{}, err
			}
			var buf bytes.Buffer
			if err := m.reports.Export(c.Request.Context(), me, in.query(), &buf); err != nil {
				return ez.Reply{}, err
			}
			name := fmt.Sprintf("pointages_%s.xlsx", time.Now().Format("20060102"))
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
			c.Data(http.StatusOK, xlsxMime, buf.Bytes())
			return ez.Written, nil
		},
	})
}

func (m pointageModule) target(c *gin.Context, requested uint) (uint, error) {
	me, err := ez.Caller(c)
	if err != nil {
		return 0, err
	}
	return m.svc.Target(c.Request.Context(), me, requested)
}
