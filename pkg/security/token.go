package security

import (
	"errors"
	"time"

	"blog_api/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = &apperror.Error{Kind: apperror.KindTokenExpired, Message: "token expired"}
	ErrTokenMalformed = &apperror.Error{Kind: apperror.KindTokenMalformed, Message: "token malformed"}
)

// Claims JWT 声明，sub 为用户 ID
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService 签发与校验访问令牌
type TokenService interface {
	Issue(p *Principal) (token string, expiresAt time.Time, err error)
	Verify(token string) (*Claims, error)
	ExpiresIn() time.Duration
}

// JWTTokenService HS256 实现，令牌不可刷新，过期后需重新登录
type JWTTokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTTokenService 创建令牌服务
func NewJWTTokenService(secretKey, issuer string, ttl time.Duration) *JWTTokenService {
	return &JWTTokenService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// ExpiresIn 令牌有效期
func (s *JWTTokenService) ExpiresIn() time.Duration {
	return s.ttl
}

// Issue 为身份签发令牌
func (s *JWTTokenService) Issue(p *Principal) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	roles := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, string(r))
	}

	claims := Claims{
		Username: p.Username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify 校验令牌
// 过期返回 ErrTokenExpired，签名、结构或算法不符返回 ErrTokenMalformed
func (s *JWTTokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
