package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"staffhub/backend/config"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/permission"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/jwt"
	"staffhub/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrPrincipalNotFound  = errors.New("账号不存在")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Logout 将 Token 加入黑名单直至其自然过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, p Principal) (*dto.PrincipalResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 按账号类型查询
	var (
		principal    dto.PrincipalResponse
		passwordHash string
	)
	switch req.Principal {
	case model.RoleCandidate:
		c, err := s.repo.Candidate.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, s.credentialError(err)
		}
		passwordHash = c.PasswordHash
		principal = dto.PrincipalResponse{ID: c.CandidateID, Name: c.Name, Email: c.Email, Role: model.RoleCandidate}
	default:
		c, err := s.repo.Consultant.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, s.credentialError(err)
		}
		passwordHash = c.PasswordHash
		principal = consultantPrincipal(c)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	accessToken, err := s.jwtMgr.GenerateAccessToken(principal.ID, principal.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(principal.ID, principal.Role, req.RememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Principal:    principal,
	}, nil
}

func (s *authService) credentialError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	s.logger.Error("查询账号失败", zap.Error(err))
	return err
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}
	if err := s.rdb.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, p Principal) (*dto.PrincipalResponse, error) {
	if p.IsCandidate() {
		c, err := s.repo.Candidate.GetByID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPrincipalNotFound
			}
			return nil, err
		}
		return &dto.PrincipalResponse{ID: c.CandidateID, Name: c.Name, Email: c.Email, Role: model.RoleCandidate}, nil
	}

	c, err := s.repo.Consultant.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	resp := consultantPrincipal(c)
	return &resp, nil
}

func consultantPrincipal(c *model.Consultant) dto.PrincipalResponse {
	role := model.RoleConsultant
	if c.Role == model.ConsultantRoleRoot {
		role = model.RoleRoot
	}
	perms := permission.ForConsultant(c).List()
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	return dto.PrincipalResponse{
		ID:          c.ConsultantID,
		Name:        c.Name,
		Email:       c.Email,
		Role:        role,
		Permissions: names,
	}
}
