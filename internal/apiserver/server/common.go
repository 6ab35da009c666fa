// Package server 路由配置与核心基础设施
//
// 文件组织：
//   - common.go: Handler 定义、健康检查和通用工具函数
//   - handler.go: 路由装配与中间件链
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"music-catalog/internal/apiserver/auth"
	"music-catalog/internal/shared/session"
	"music-catalog/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域处理器
//   - 管理存储层连接与会话存储
//   - 导出 Prometheus 指标
type Handler struct {
	store    storage.PersistentStore // 业务数据持久化
	sessions session.Store           // 会话存储（Redis 或进程内）
	authCfg  auth.Config
	metrics  *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, sessions session.Store, authCfg auth.Config) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		authCfg:  authCfg,
		metrics:  NewMetrics("music"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 将错误信息以 JSON 格式写入 HTTP 响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
