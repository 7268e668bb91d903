package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

type ContextKey string

var (
	AccountCtxKey ContextKey = "account"
	ClaimsCtxKey  ContextKey = "claims"
	MemberCtxKey  ContextKey = "member"
)

// currentAccount 只能在 auth 中间件之后调用
func currentAccount(r *http.Request) *domain.Account {
	return r.Context().Value(AccountCtxKey).(*domain.Account)
}

func currentClaims(r *http.Request) *auth.Claims {
	return r.Context().Value(ClaimsCtxKey).(*auth.Claims)
}
