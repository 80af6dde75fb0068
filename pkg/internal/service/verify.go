package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	ctxPkg "github.com/yeisme/cropvault/pkg/context"
	"github.com/yeisme/cropvault/pkg/internal/storage/kv"
	"github.com/yeisme/cropvault/pkg/internal/types"
	nlog "github.com/yeisme/cropvault/pkg/log"
)

const (
	otpKeyPrefix = "otp:"
	// OTPTTL 验证码有效期.
	OTPTTL = 5 * time.Minute
	// OTPDigits 验证码位数.
	OTPDigits = 6
)

// ErrKVUnavailable KV 存储未配置，验证码功能不可用.
var ErrKVUnavailable = errors.New("kv store not available")

// VerifyService 一次性验证码：签发、校验并消费.基于 KV TTL 存储.
type VerifyService struct {
	kvc *kv.Client
}

func NewVerifyService(c context.Context) *VerifyService {
	svc := &VerifyService{kvc: ctxPkg.GetKVClient(c)}

	if svc.kvc == nil {
		nlog.Logger().Warn().Msg("KV client not initialized, verification codes unavailable")
	}

	return svc
}

func makeOTPKey(user, purpose string) string {
	return otpKeyPrefix + user + ":" + purpose
}

// newOTPCode 生成固定位数的数字验证码（crypto/rand）.
func newOTPCode() (string, error) {
	limit := big.NewInt(1)
	for range OTPDigits {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", OTPDigits, n), nil
}

// RequestCode 为指定用途签发验证码并写入 KV，覆盖同用途的旧码.
// 验证码经带外通道送达，这里只记录审计日志，不回传明文.
func (s *VerifyService) RequestCode(ctx context.Context, user, purpose string) (*types.OTPRequestResponse, error) {
	if s.kvc == nil {
		return nil, ErrKVUnavailable
	}

	code, err := newOTPCode()
	if err != nil {
		return nil, err
	}

	if err := s.kvc.Set(ctx, makeOTPKey(user, purpose), []byte(code), OTPTTL); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	nlog.Logger().Info().
		Str("user", user).
		Str("purpose", purpose).
		Msg("verification code issued")

	return &types.OTPRequestResponse{
		Purpose:   purpose,
		ExpiresIn: int(OTPTTL.Seconds()),
	}, nil
}

// VerifyCode 校验并消费验证码：命中即删除，同一个码只能用一次.
// 码不存在、已过期或不匹配都返回 Valid=false，不区分原因.
func (s *VerifyService) VerifyCode(ctx context.Context, user, purpose, code string) (*types.OTPVerifyResponse, error) {
	if s.kvc == nil {
		return nil, ErrKVUnavailable
	}

	key := makeOTPKey(user, purpose)

	stored, err := s.kvc.Get(ctx, key)
	if err != nil || len(stored) == 0 {
		return &types.OTPVerifyResponse{Valid: false}, nil
	}

	if subtle.ConstantTimeCompare(stored, []byte(code)) != 1 {
		return &types.OTPVerifyResponse{Valid: false}, nil
	}

	if err := s.kvc.Delete(ctx, key); err != nil {
		nlog.Logger().Warn().Err(err).Str("user", user).Msg("failed to consume verification code")
	}

	return &types.OTPVerifyResponse{Valid: true}, nil
}
