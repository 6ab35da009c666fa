// Package user 用户领域 - HTTP 处理
package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"music-catalog/internal/apiserver/auth"
	"music-catalog/internal/shared/model"
	"music-catalog/internal/shared/session"
)

// Handler 用户领域 HTTP 处理器
type Handler struct {
	svc      *Service
	sessions session.Store
	authCfg  auth.Config
}

// NewHandler 创建用户处理器
func NewHandler(svc *Service, sessions session.Store, authCfg auth.Config) *Handler {
	return &Handler{svc: svc, sessions: sessions, authCfg: authCfg}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /user/register", h.Register)
	mux.HandleFunc("POST /user/login", h.Login)
	mux.HandleFunc("GET /user/logout", h.Logout)
	mux.HandleFunc("GET /user/profile", h.Profile)
	mux.HandleFunc("PUT /user/profile", h.UpdateProfile)
	mux.HandleFunc("POST /user/subscription", h.ChangeSubscriptionForm)
	mux.HandleFunc("PUT /user/subscription", h.ChangeSubscription)
	mux.HandleFunc("DELETE /user", h.DeleteAccount)

	// 管理列表接口
	mux.HandleFunc("GET /users", h.List)
	mux.HandleFunc("GET /users/subscription/{tier}", h.BySubscription)
}

// Register 注册新用户（表单编码）
//
// 必填：username、email、password；可选：full_name、date_of_birth（YYYY-MM-DD）、gender。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	params := RegisterParams{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		FullName: optionalForm(r, "full_name"),
		Gender:   optionalForm(r, "gender"),
	}
	if dob := r.PostFormValue("date_of_birth"); dob != "" {
		t, err := time.Parse("2006-01-02", dob)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
			return
		}
		params.DateOfBirth = &t
	}

	u, err := h.svc.Register(r.Context(), params)
	if err != nil {
		switch {
		// 唯一键冲突按客户端错误上报（与既有客户端约定一致）
		case errors.Is(err, ErrInvalidInput),
			errors.Is(err, ErrEmailTaken),
			errors.Is(err, ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("[user] register failed: %v", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// Login 邮箱密码登录（表单编码）
//
// 认证通过后创建会话并下发 HttpOnly Cookie。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.svc.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
			return
		}
		log.Printf("[user] login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	now := time.Now()
	sess := &session.Session{
		Token:            session.NewToken(),
		UserID:           u.UserID,
		Username:         u.Username,
		SubscriptionType: u.SubscriptionType,
		CreatedAt:        now,
		ExpiresAt:        now.Add(h.authCfg.SessionTTL),
	}
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		log.Printf("[user] session create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.authCfg.CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.authCfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, u)
}

// Logout 注销会话
//
// 幂等：无 Cookie 或会话已失效同样返回 200。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.authCfg.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Printf("[user] session delete failed: %v", err)
		}
	}

	// 清除客户端 Cookie
	http.SetCookie(w, &http.Cookie{
		Name:     h.authCfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Profile 返回当前登录用户资料
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	u, err := h.svc.Profile(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		log.Printf("[user] profile failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// profileUpdateRequest PUT /user/profile 请求体（缺省字段不变）
type profileUpdateRequest struct {
	Username          *string `json:"username"`
	Email             *string `json:"email"`
	FullName          *string `json:"full_name"`
	DateOfBirth       *string `json:"date_of_birth"` // YYYY-MM-DD
	Gender            *string `json:"gender"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// UpdateProfile 更新当前登录用户资料
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := ProfileUpdate{
		Username:          req.Username,
		Email:             req.Email,
		FullName:          req.FullName,
		Gender:            req.Gender,
		ProfilePictureURL: req.ProfilePictureURL,
	}
	if req.DateOfBirth != nil {
		t, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
			return
		}
		upd.DateOfBirth = &t
	}

	u, err := h.svc.UpdateProfile(r.Context(), sess.UserID, upd)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput),
			errors.Is(err, ErrEmailTaken),
			errors.Is(err, ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, ErrUserNotFound.Error())
		default:
			log.Printf("[user] profile update failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// ChangeSubscription 变更当前登录用户的订阅档位（JSON 请求体）
func (h *Handler) ChangeSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubscriptionType string `json:"subscription_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.changeSubscription(w, r, model.SubscriptionType(req.SubscriptionType))
}

// ChangeSubscriptionForm 变更订阅档位（表单编码，字段 tier）
func (h *Handler) ChangeSubscriptionForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	h.changeSubscription(w, r, model.SubscriptionType(r.PostFormValue("tier")))
}

func (h *Handler) changeSubscription(w http.ResponseWriter, r *http.Request, tier model.SubscriptionType) {
	sess := auth.SessionFromContext(r.Context())

	u, err := h.svc.ChangeSubscription(r.Context(), sess.UserID, tier)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, ErrUserNotFound.Error())
		default:
			log.Printf("[user] subscription change failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to change subscription")
		}
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// DeleteAccount 删除当前登录用户并注销会话
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), sess.UserID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		log.Printf("[user] account delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	if err := h.sessions.Delete(r.Context(), sess.Token); err != nil {
		log.Printf("[user] session delete failed: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// List 分页列出用户
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	users, err := h.svc.List(r.Context(), page, pageSize)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[user] list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

// BySubscription 按订阅档位列出活跃用户
func (h *Handler) BySubscription(w http.ResponseWriter, r *http.Request) {
	tier := model.SubscriptionType(r.PathValue("tier"))

	users, err := h.svc.BySubscription(r.Context(), tier)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[user] list by subscription failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

// ============================================================================
// 工具函数
// ============================================================================

func optionalForm(r *http.Request, key string) *string {
	if v := r.PostFormValue(key); v != "" {
		return &v
	}
	return nil
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

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
