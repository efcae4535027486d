package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

// auditBodyMax 审计只保留请求体前 64KB
const auditBodyMax = 64 << 10

type AuditRecorder interface {
	Record(ctx context.Context, l *domain.AuditLog) error
}

type auditDetails struct {
	Params map[string]string   `json:"params"`
	Query  map[string][]string `json:"query"`
	Body   any                 `json:"body"`
}

// Audit 成功的写操作（已登录）写入 logs 表；写入失败只记日志
func Audit(rec AuditRecorder, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutating(c.Request.Method) {
			c.Next()
			return
		}
		raw := peekBody(c.Request)

		c.Next()

		id, ok := IdentityFrom(c)
		if !ok || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		d := auditDetails{
			Params: map[string]string{},
			Query:  maskValues(c.Request.URL.Query()),
			Body:   map[string]any{},
		}
		for _, p := range c.Params {
			d.Params[p.Key] = p.Value
		}
		if len(raw) > 0 {
			var body any
			if err := json.Unmarshal(raw, &body); err == nil {
				d.Body = maskJSON(body)
			}
		}
		details, _ := json.Marshal(d)

		action := c.Request.Method + " " + c.Request.URL.RequestURI()
		if len(action) > 100 {
			action = action[:100]
		}
		uid := id.ID
		entry := &domain.AuditLog{
			UserID:    &uid,
			Action:    action,
			Details:   string(details),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 3*time.Second)
		defer cancel()
		if err := rec.Record(ctx, entry); err != nil {
			l.Warn("audit write failed",
				zap.String("rid", c.GetString(KeyRequestID)),
				zap.String("action", entry.Action),
				zap.Error(err),
			)
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// peekBody 读取 JSON 请求体的前缀并放回，后续绑定不受影响
func peekBody(r *http.Request) []byte {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, auditBodyMax))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(buf), r.Body), Closer: r.Body}
	if err != nil {
		return nil
	}
	return buf
}

type readCloser struct {
	io.Reader
	io.Closer
}
