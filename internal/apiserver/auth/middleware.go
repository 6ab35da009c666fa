package auth

import (
	"log"
	"net/http"
	"strings"

	"music-catalog/internal/shared/session"
)

// 免认证路由（方法 + 路径前缀）
//
// 目录读取接口对外公开；写接口和账号接口要求有效会话。
var publicRoutes = []struct {
	method string
	prefix string
}{
	{"GET", "/health"},
	{"GET", "/metrics"},
	{"GET", "/songs"},
	{"POST", "/user/register"},
	{"POST", "/user/login"},
	{"GET", "/user/logout"},
}

func isPublicRoute(method, path string) bool {
	for _, r := range publicRoutes {
		if method != r.method || !strings.HasPrefix(path, r.prefix) {
			continue
		}
		// GET /songs 全部公开，但播放计数（POST）不在此列
		return true
	}
	// 播放上报无需登录（播放器在登录前也会拉流）
	if method == "POST" && strings.HasPrefix(path, "/songs/") && strings.HasSuffix(path, "/play") {
		return true
	}
	return false
}

// Middleware 创建会话认证中间件
//
// 从 Cookie 中提取不透明令牌，查询会话存储并注入 context。
// 无会话或会话已失效的受保护请求直接返回 401。
func Middleware(cfg Config, sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err == nil && cookie.Value != "" {
				sess, err := sessions.Get(r.Context(), cookie.Value)
				if err != nil {
					log.Printf("[auth] session lookup error: %v", err)
				}
				if sess != nil {
					r = r.WithContext(WithSession(r.Context(), sess))
				}
			}

			if isPublicRoute(r.Method, r.URL.Path) || SessionFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"not authenticated"}`))
		})
	}
}
