package service

import (
	"errors"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 认证服务：令牌由上游账号体系签发，本服务只做校验。
// GenerateJWT 保留给种子工具和测试生成演示令牌。
type AuthService struct {
	cfg *config.Config
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		cfg: cfg,
	}
}

// JWTClaims JWT 声明：subject_id 按 role 解释为用户或承运方主键
type JWTClaims struct {
	SubjectID uint   `json:"subject_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(subjectID uint, role string, ttl time.Duration) (string, time.Time, error) {
	if subjectID == 0 || !validRole(role) {
		return "", time.Time{}, errors.New("invalid token subject")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := JWTClaims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.SubjectID == 0 || !validRole(claims.Role) {
		return nil, errors.New("invalid token subject")
	}

	return claims, nil
}

func validRole(role string) bool {
	switch role {
	case constants.RoleUser, constants.RoleTransporter, constants.RoleDriver:
		return true
	}
	return false
}
