package middleware

import "strings"

const masked = "***"

// 敏感字段 key（query/body 中统一按小写 key 匹配）
var sensitiveKeys = map[string]struct{}{
	"password": {}, "newpassword": {}, "oldpassword": {}, "code_secret": {},
	"pwd": {}, "token": {}, "authorization": {}, "secret": {}, "access_token": {},
}

func sensitive(k string) bool {
	_, ok := sensitiveKeys[strings.ToLower(k)]
	return ok
}

func maskValues(kv map[string][]string) map[string][]string {
	out := make(map[string][]string, len(kv))
	for k, v := range kv {
		if sensitive(k) {
			out[k] = []string{masked}
		} else {
			out[k] = v
		}
	}
	return out
}

// maskJSON 递归替换 JSON 对象中的敏感字段
func maskJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitive(k) {
				out[k] = masked
				continue
			}
			out[k] = maskJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = maskJSON(val)
		}
		return out
	}
	return v
}
