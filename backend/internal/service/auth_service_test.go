package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"staffhub/backend/config"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/permission"
	"staffhub/backend/pkg/jwt"
)

// ── 测试辅助 ──

func setupTestAuthService(t *testing.T) (AuthService, *fixture, *jwt.Manager) {
	f := newFixture(t)
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-at-least-16",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, f.repo, jwtMgr, nil, zap.NewNop())
	return svc, f, jwtMgr
}

func setPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	return string(hash)
}

// ── 登录测试 ──

func TestLogin_Candidate(t *testing.T) {
	svc, f, jwtMgr := setupTestAuthService(t)
	f.mocks.candidate.candidates[testCandidate].PasswordHash = setPassword(t, "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:     "C1@example.com",
		Password:  "password123",
		Principal: model.RoleCandidate,
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.Principal.ID != testCandidate || result.Principal.Role != model.RoleCandidate {
		t.Errorf("登录主体不正确: %+v", result.Principal)
	}

	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("解析 AccessToken 失败: %v", err)
	}
	if claims.UserID != testCandidate || claims.Role != model.RoleCandidate {
		t.Errorf("Token 声明不正确: %+v", claims)
	}
}

func TestLogin_ConsultantCarriesPermissions(t *testing.T) {
	svc, f, _ := setupTestAuthService(t)
	f.mocks.consultant.consultants[testHolderID].PasswordHash = setPassword(t, "password123")
	f.grant(testHolderID, permission.CreateProjects)

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:     "holder@example.com",
		Password:  "password123",
		Principal: model.RoleConsultant,
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.Principal.Role != model.RoleConsultant {
		t.Errorf("期望 role=consultant，实际=%s", result.Principal.Role)
	}
	if len(result.Principal.Permissions) != 1 || result.Principal.Permissions[0] != string(permission.CreateProjects) {
		t.Errorf("权限列表不正确: %v", result.Principal.Permissions)
	}
}

func TestLogin_RootRole(t *testing.T) {
	svc, f, _ := setupTestAuthService(t)
	c := f.mocks.consultant.consultants[testOutsiderID]
	c.PasswordHash = setPassword(t, "password123")
	c.Role = model.ConsultantRoleRoot

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:     "outsider@example.com",
		Password:  "password123",
		Principal: model.RoleConsultant,
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.Principal.Role != model.RoleRoot {
		t.Errorf("期望 role=root，实际=%s", result.Principal.Role)
	}
	if len(result.Principal.Permissions) != len(permission.All) {
		t.Errorf("ROOT 应拥有全部权限，实际: %v", result.Principal.Permissions)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, f, _ := setupTestAuthService(t)
	f.mocks.candidate.candidates[testCandidate].PasswordHash = setPassword(t, "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:     "c1@example.com",
		Password:  "wrong_password",
		Principal: model.RoleCandidate,
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_WrongPrincipal(t *testing.T) {
	svc, f, _ := setupTestAuthService(t)
	f.mocks.candidate.candidates[testCandidate].PasswordHash = setPassword(t, "password123")

	// 候选人账号不能以顾问身份登录
	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:     "c1@example.com",
		Password:  "password123",
		Principal: model.RoleConsultant,
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── 登出 / 当前主体 ──

func TestLogout_WithoutRedisIsNoop(t *testing.T) {
	svc, _, _ := setupTestAuthService(t)
	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Errorf("未配置 Redis 时 Logout 不应报错: %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := setupTestAuthService(t)

	me, err := svc.Me(context.Background(), Principal{ID: testCandidate, Role: model.RoleCandidate})
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.Name != "陈一" {
		t.Errorf("期望 Name=陈一，实际=%s", me.Name)
	}

	_, err = svc.Me(context.Background(), Principal{ID: "ghost", Role: model.RoleConsultant})
	if !errors.Is(err, ErrPrincipalNotFound) {
		t.Errorf("期望 ErrPrincipalNotFound，实际: %v", err)
	}
}
