package response

import "github.com/gin-gonic/gin"

// OK 成功响应：{success:true, message?, ...payload}
func OK(msg string, payload gin.H) gin.H {
	out := gin.H{}
	for k, v := range payload {
		out[k] = v
	}
	out["success"] = true
	if msg != "" {
		out["message"] = msg
	}
	return out
}

// Error 失败响应：{success:false, message}
func Error(msg string) gin.H {
	return gin.H{"success": false, "message": msg}
}

// Abort 写失败响应并终止后续处理
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(msg))
}
