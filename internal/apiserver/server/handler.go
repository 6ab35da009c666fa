package server

import (
	"net/http"

	"music-catalog/internal/apiserver/auth"
	"music-catalog/internal/apiserver/song"
	"music-catalog/internal/apiserver/user"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 歌曲目录 (Song):
//   - GET    /songs              - 分页列出歌曲（?q= 标题检索）
//   - GET    /songs/{id}         - 获取歌曲详情
//   - GET    /songs/artist/{id}  - 艺人的歌曲
//   - GET    /songs/album/{id}   - 专辑曲目
//   - GET    /songs/search?q=    - 标题检索
//   - GET    /songs/top          - 热门榜单
//   - GET    /songs/recent       - 新发布榜单
//   - POST   /songs              - 入库新歌曲（需登录）
//   - PUT    /songs/{id}         - 更新歌曲（需登录）
//   - DELETE /songs/{id}         - 删除歌曲（需登录）
//   - POST   /songs/{id}/play    - 上报播放
//   - POST   /songs/{id}/like    - 点赞（需登录）
//   - DELETE /songs/{id}/like    - 取消点赞（需登录）
//
// 用户账号 (User):
//   - POST   /user/register      - 注册
//   - POST   /user/login         - 登录（下发会话 Cookie）
//   - GET    /user/logout        - 注销
//   - GET    /user/profile       - 当前用户资料（需登录）
//   - PUT    /user/profile       - 更新资料（需登录）
//   - POST   /user/subscription  - 变更订阅，表单 tier（需登录）
//   - PUT    /user/subscription  - 变更订阅，JSON（需登录）
//   - DELETE /user               - 删除账号（需登录）
//   - GET    /users              - 用户列表（需登录）
//   - GET    /users/subscription/{tier} - 按订阅档位列出（需登录）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Song 接口
	songHandler := song.NewHandler(song.NewService(h.store))
	songHandler.RegisterRoutes(mux)

	// User 接口
	userHandler := user.NewHandler(user.NewService(h.store), h.sessions, h.authCfg)
	userHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg, h.sessions)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
