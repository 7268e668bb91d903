package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

// MaxPasswordBytes 是 bcrypt 能处理的最大密码长度
const MaxPasswordBytes = 72

type AccountStore interface {
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// Authenticator 封装密码校验和会话身份解析，handler 只依赖这个接口
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*domain.Account, error)
	Resolve(ctx context.Context, accountID int64) (*domain.Account, error)
}

type PasswordAuthenticator struct {
	accounts AccountStore
}

func NewPasswordAuthenticator(accounts AccountStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{accounts: accounts}
}

// 用户名不存在时也做一次哈希比较，避免通过响应时间判断用户名是否存在
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOa6eE7NnYaBfUVy3ZqIV5zEDKkzYl4eS")

func (a *PasswordAuthenticator) Login(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := a.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return account, nil
}

func (a *PasswordAuthenticator) Resolve(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := a.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	return account, nil
}

func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
