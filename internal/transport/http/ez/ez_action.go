package ez

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/middleware"
	resp "github.com/yassin-houari/bubbletech-pointage/internal/transport/http/response"
)

// EZ 对 RouterGroup 的轻封装：统一绑定、鉴权、错误映射
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
	dev bool // 开发环境下 500 返回错误详情
}

func New(g *gin.RouterGroup, l *zap.Logger, dev bool) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l, dev: dev}
}

// Group 派生子路由，可附加中间件
func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mw...), log: e.log, dev: e.dev}
}

// 绑定方式
type Binder string

const (
	BindJSON         Binder = "json"          // 从 JSON 绑定
	BindOptionalJSON Binder = "optional_json" // JSON，可为空 body
	BindQuery        Binder = "query"         // 从 URL ?a=b 绑定
	BindNone         Binder = "none"          // 不绑定，自己从 c.Param 取
)

// Reply 成功结果：Status 默认 200；Data 平铺进响应体
type Reply struct {
	Status  int
	Message string
	Data    gin.H
}

// Written 表示处理函数已自行写出响应（如文件下载）
var Written = Reply{Status: -1}

// 动作定义：I 入参
type Action[I any] struct {
	Method  string        // "GET" | "POST" | "PUT" | "DELETE"
	Path    string        // 例："/auth/login"、"/users/:id"
	Binder  Binder        // 绑定方式
	Roles   []domain.Role // 限定角色（需在 AuthJWT 之后）
	Handler func(c *gin.Context, in *I) (Reply, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any](e EZ, a Action[I]) {
	h := func(c *gin.Context) {
		// 1) 角色
		if len(a.Roles) > 0 {
			id, ok := middleware.IdentityFrom(c)
			if !ok {
				resp.Abort(c, http.StatusUnauthorized, resp.MsgUnauthorized)
				return
			}
			if !id.Is(a.Roles...) {
				resp.Abort(c, http.StatusForbidden, resp.MsgForbidden)
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindOptionalJSON:
			if bindErr = c.ShouldBindJSON(&in); errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(bindErr, &tooLarge) {
				resp.Abort(c, http.StatusRequestEntityTooLarge, resp.MsgTooLarge)
				return
			}
			resp.Abort(c, http.StatusBadRequest, "Données invalides: "+bindErr.Error())
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		if out.Status == Written.Status {
			return
		}
		status := out.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, resp.OK(out.Message, out.Data))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func (e EZ) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := resp.StatusOf(kind)
	if kind != domain.KindInternal {
		var de *domain.Error
		msg := err.Error()
		if errors.As(err, &de) && de.Msg != "" {
			msg = de.Msg
		}
		resp.Abort(c, status, msg)
		return
	}
	e.log.Error("request failed",
		zap.String("rid", c.GetString(middleware.KeyRequestID)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	msg := resp.MsgServerError
	if e.dev {
		msg += ": " + err.Error()
	}
	resp.Abort(c, status, msg)
}

// Caller 当前登录用户；路由均挂在 AuthJWT 之后
func Caller(c *gin.Context) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, domain.Unauthorized(resp.MsgUnauthorized)
	}
	return id, nil
}

// ParamID 解析路径参数中的正整数 id
func ParamID(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, domain.Validation("%s invalide", name)
	}
	return uint(v), nil
}
