package router

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/config"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/server"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/ez"
	mdw "github.com/yassin-houari/bubbletech-pointage/internal/transport/http/middleware"
	resp "github.com/yassin-houari/bubbletech-pointage/internal/transport/http/response"
)

// Deps 路由依赖
type Deps struct {
	Config        *config.Config
	Log           *zap.Logger
	JWT           *auth.JWTer
	Auth          *service.AuthService
	Users         *service.UserService
	Lookups       *service.LookupService
	Teams         *service.TeamService
	Pointages     *service.PointageService
	Reports       *service.ReportService
	Notifications *service.NotificationService
	Audit         *service.AuditService
	Ping          func(context.Context) error // 可选：/health 检查下游
}

func NewAPIEngine(d Deps) *gin.Engine {
	cfg := d.Config
	sec := cfg.Security
	mode := gin.ReleaseMode
	if cfg.App.Development() {
		mode = gin.DebugMode
	}
	r := server.NewRouter(d.Log, mode)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst),
		mdw.ConcurrencyLimit(sec.MaxConcurrent),
		mdw.MaxBodyBytes(sec.MaxBodyBytes),
		mdw.Timeout(time.Duration(sec.RequestTimeoutSec)*time.Second),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log.Named("http")),
		server.CORS(cfg.App.CORSOrigins),
	)
	if d.Audit != nil {
		r.Use(mdw.Audit(d.Audit, d.Log.Named("audit")))
	}

	r.GET("/metrics", mdw.MetricsHandler())

	// 前缀
	api := r.Group("/api")
	api.GET("/health", health(d.Ping))

	public := ez.New(api, d.Log, cfg.App.Development())
	private := public.Group("", mdw.AuthJWT(d.JWT))

	login := mdw.LoginLimiter(sec.LoginAttempts, time.Duration(sec.LoginWindowMin)*time.Minute)

	var reg Registry
	reg.Register(
		authModule{svc: d.Auth, limiter: login},
		userModule{svc: d.Users},
		lookupModule{svc: d.Lookups},
		teamModule{svc: d.Teams},
		pointageModule{svc: d.Pointages, reports: d.Reports},
		notificationModule{svc: d.Notifications},
	)
	reg.MountAll(public, private)

	r.NoRoute(notFound(cfg.App.StaticDir))
	return r
}

func health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, resp.Error("Service indisponible"))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK("API BubbleTech Pointage est opérationnelle", gin.H{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}))
	}
}

// notFound /api 下返回 JSON 404；配置了 staticDir 时其余路径交给前端（SPA 回退 index.html）
func notFound(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if staticDir == "" || strings.HasPrefix(p, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, resp.Error(resp.MsgNotFound))
			return
		}
		f := filepath.Join(staticDir, filepath.FromSlash(filepath.Clean("/"+p)))
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			c.File(f)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	}
}
