package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"blog_api/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	codeTTL        = 24 * time.Hour
	resendInterval = time.Minute
)

// ErrTooFrequent 发送过于频繁
var ErrTooFrequent = errors.New("please wait before requesting another code")

// OTPService 一次性验证码，目前用于邮箱验证
type OTPService interface {
	Send(ctx context.Context, purpose, target string) (string, error)
	Verify(ctx context.Context, purpose, target, code string) bool
}

type otpService struct {
	rdb *redis.Client
}

func NewOTPService(rdb *redis.Client) OTPService {
	return &otpService{rdb: rdb}
}

func codeKey(purpose, target string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, target)
}

func throttleKey(purpose, target string) string {
	return fmt.Sprintf("otp:%s:%s:sent", purpose, target)
}

// Send 生成 6 位验证码并存入 Redis
// 真实场景应投递到邮件服务，这里只写日志
func (s *otpService) Send(ctx context.Context, purpose, target string) (string, error) {
	ok, err := s.rdb.SetNX(ctx, throttleKey(purpose, target), 1, resendInterval).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTooFrequent
	}

	code, err := randomCode()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, codeKey(purpose, target), code, codeTTL).Err(); err != nil {
		return "", err
	}

	logger.Log.Info("verification code issued",
		zap.String("purpose", purpose),
		zap.String("target", target),
		zap.String("code", code),
	)
	return code, nil
}

// Verify 校验验证码，成功后立即删除，防止重放
func (s *otpService) Verify(ctx context.Context, purpose, target, code string) bool {
	key := codeKey(purpose, target)
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil || val != code {
		return false
	}
	s.rdb.Del(ctx, key)
	return true
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
