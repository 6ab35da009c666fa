// Package song 歌曲目录领域 - HTTP 处理
package song

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"music-catalog/internal/shared/model"
)

// Handler 歌曲目录 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建歌曲处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册歌曲相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// 目录读取（公开）
	mux.HandleFunc("GET /songs", h.List)
	mux.HandleFunc("GET /songs/search", h.Search)
	mux.HandleFunc("GET /songs/top", h.Top)
	mux.HandleFunc("GET /songs/recent", h.Recent)
	mux.HandleFunc("GET /songs/{id}", h.Get)
	mux.HandleFunc("GET /songs/artist/{id}", h.ByArtist)
	mux.HandleFunc("GET /songs/album/{id}", h.ByAlbum)

	// 目录管理（需登录）
	mux.HandleFunc("POST /songs", h.Create)
	mux.HandleFunc("PUT /songs/{id}", h.Update)
	mux.HandleFunc("DELETE /songs/{id}", h.Delete)

	// 计数
	mux.HandleFunc("POST /songs/{id}/play", h.Play)
	mux.HandleFunc("POST /songs/{id}/like", h.Like)
	mux.HandleFunc("DELETE /songs/{id}/like", h.Unlike)
}

// Get 按 ID 返回歌曲
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	song, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to get song")
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// List 列出歌曲
//
// `?q=` 走标题检索（按播放量降序）；否则分页列出，
// 接受 page/page_size 或 limit/offset 两种参数风格。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		songs, err := h.svc.Search(r.Context(), q, queryInt(r, "limit", 0))
		if err != nil {
			respondServiceError(w, err, "failed to search songs")
			return
		}
		writeSongList(w, songs)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	if pageSize := queryInt(r, "page_size", 0); pageSize > 0 {
		page := queryInt(r, "page", 1)
		if page < 1 {
			writeError(w, http.StatusBadRequest, "page must be positive")
			return
		}
		limit = pageSize
		offset = (page - 1) * pageSize
	}

	songs, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err, "failed to list songs")
		return
	}
	writeSongList(w, songs)
}

// ByArtist 列出艺人歌曲
func (h *Handler) ByArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	songs, err := h.svc.ByArtist(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to list songs by artist")
		return
	}
	writeSongList(w, songs)
}

// ByAlbum 列出专辑曲目
func (h *Handler) ByAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	songs, err := h.svc.ByAlbum(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to list songs by album")
		return
	}
	writeSongList(w, songs)
}

// Search 标题子串检索（q 必填，limit 可选）
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 0)

	songs, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		respondServiceError(w, err, "failed to search songs")
		return
	}
	writeSongList(w, songs)
}

// Top 热门榜单
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.Top(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		respondServiceError(w, err, "failed to list top songs")
		return
	}
	writeSongList(w, songs)
}

// Recent 新发布榜单
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.Recent(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		respondServiceError(w, err, "failed to list recent releases")
		return
	}
	writeSongList(w, songs)
}

// Create 入库新歌曲
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var song model.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), &song)
	if err != nil {
		respondServiceError(w, err, "failed to create song")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update 更新歌曲元数据
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var song model.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	song.SongID = id

	updated, err := h.svc.Update(r.Context(), &song)
	if err != nil {
		respondServiceError(w, err, "failed to update song")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete 删除歌曲
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to delete song")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Play 上报播放
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Play(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to record play")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "play recorded"})
}

// Like 点赞
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Like(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to record like")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "like recorded"})
}

// Unlike 取消点赞
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Unlike(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to remove like")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "like removed"})
}

// ============================================================================
// 工具函数
// ============================================================================

// pathID 解析 {id} 路径参数；非法时写 400 并返回 false
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSongNotFound):
		writeError(w, http.StatusNotFound, ErrSongNotFound.Error())
	default:
		log.Printf("[song] %s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeSongList(w http.ResponseWriter, songs []*model.Song) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": songs, "count": len(songs)})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
