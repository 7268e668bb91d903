package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Sessions 签发和校验会话令牌，令牌中只保存账户 ID，注销后的令牌 ID 记录在 RevocationStore 中
type Sessions struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationStore
	now         func() time.Time
}

func NewSessions(secret string, ttl time.Duration, revocations RevocationStore) *Sessions {
	return &Sessions{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		now:         time.Now,
	}
}

func (s *Sessions) Issue(account *domain.Account) (string, time.Time, error) {
	now := s.now()
	expiration := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(account.ID, 10),
		},
	})

	ss, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return ss, expiration, nil
}

// Parse 校验令牌签名、有效期以及是否已被注销，令牌本身无效时返回 ErrInvalidSession
func (s *Sessions) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidSession
	}

	if _, err := claims.AccountID(); err != nil {
		return nil, ErrInvalidSession
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidSession
	}

	return claims, nil
}

// Revoke 在令牌剩余的有效期内记住它已被注销
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	return s.revocations.Revoke(ctx, claims.ID, ttl)
}
