package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"music-catalog/internal/shared/session"
)

func TestMiddleware(t *testing.T) {
	sessions := session.NewMemoryStore()
	cfg := DefaultConfig()

	sess := &session.Session{
		Token:     session.NewToken(),
		UserID:    7,
		Username:  "alice",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, sessions.Create(context.Background(), sess))

	var gotSession *session.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(cfg, sessions)(next)

	// 公开路由无会话也放行
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/songs/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, gotSession)

	// 受保护路由无会话拒绝
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/user/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "not authenticated")

	// 伪造令牌同样拒绝
	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "deadbeefdeadbeefdeadbeefdeadbeef"})
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 有效会话注入 context
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: sess.Token})
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotSession)
	assert.Equal(t, int64(7), gotSession.UserID)
	assert.Equal(t, "alice", gotSession.Username)
}
