package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	resp "github.com/yassin-houari/bubbletech-pointage/internal/transport/http/response"
)

const keyIdentity = "identity"

func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, http.StatusUnauthorized, resp.MsgUnauthorized)
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, resp.MsgBadToken)
			return
		}
		c.Set(keyIdentity, claims.Identity)
		c.Next()
	}
}

// IdentityFrom 读取 AuthJWT 写入的调用者身份
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(keyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// RequireRoles 仅允许指定角色访问
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, resp.MsgUnauthorized)
			return
		}
		if !id.Is(roles...) {
			resp.Abort(c, http.StatusForbidden, resp.MsgForbidden)
			return
		}
		c.Next()
	}
}
