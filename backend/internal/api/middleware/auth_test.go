package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"staffhub/backend/config"
	"staffhub/backend/pkg/jwt"
	"staffhub/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "middleware-test-secret-0123456789",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

// protectedEngine 回显中间件注入的上下文
func protectedEngine(mgr *jwt.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{JWTAuth(mgr, nil)}
	if len(roles) > 0 {
		chain = append(chain, RoleAuth(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		_, hasExp := c.Get("token_exp")
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"role":    c.GetString("role"),
			"jti":     c.GetString("token_jti"),
			"has_exp": hasExp,
		})
	})
	r.GET("/p", chain...)
	return r
}

func call(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/p", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_InjectsPrincipal(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("cand-1", "candidate")
	if err != nil {
		t.Fatal(err)
	}

	w := call(protectedEngine(mgr), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &got)
	if got["user_id"] != "cand-1" || got["role"] != "candidate" {
		t.Errorf("unexpected principal %v", got)
	}
	if got["jti"] == "" || got["has_exp"] != true {
		t.Errorf("token meta missing: %v", got)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newTestJWT()
	refresh, _ := mgr.GenerateRefreshToken("cand-1", "candidate", false)
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-0123456789", AccessTokenTTL: time.Minute})
	forged, _ := other.GenerateAccessToken("cand-1", "root")

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"refresh token":  "Bearer " + refresh,
		"bad signature":  "Bearer " + forged,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := call(protectedEngine(mgr), header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			var resp response.Response
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Code != 10002 {
				t.Errorf("expected code 10002, got %d", resp.Code)
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	candidate, _ := mgr.GenerateAccessToken("cand-1", "candidate")
	consultant, _ := mgr.GenerateAccessToken("con-1", "consultant")

	r := protectedEngine(mgr, "consultant", "root")

	if w := call(r, "Bearer "+consultant); w.Code != http.StatusOK {
		t.Errorf("consultant should pass, got %d", w.Code)
	}
	w := call(r, "Bearer "+candidate)
	if w.Code != http.StatusForbidden {
		t.Fatalf("candidate should be forbidden, got %d", w.Code)
	}
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 10003 {
		t.Errorf("expected code 10003, got %d", resp.Code)
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/p", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/p", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
	}
}
