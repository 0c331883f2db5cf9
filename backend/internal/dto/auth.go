package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求；principal 区分候选人与顾问账号
type LoginRequest struct {
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	Principal  string `json:"principal"   binding:"required,oneof=candidate consultant"`
	RememberMe bool   `json:"remember_me"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token,omitempty"`
	ExpiresIn    int               `json:"expires_in"` // Access Token 有效期（秒）
	Principal    PrincipalResponse `json:"principal"`
}

// PrincipalResponse 当前登录主体（脱敏）
type PrincipalResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"` // candidate | consultant | root
	Permissions []string `json:"permissions,omitempty"`
}
