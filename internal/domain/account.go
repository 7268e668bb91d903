package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

type Account struct {
	ID           int64            `json:"id"`
	Username     string           `json:"username"`
	PasswordHash string           `json:"-"`
	Role         Role             `json:"role"`
	FullName     Optional[string] `json:"fullName"`
	MemberID     Optional[string] `json:"memberID"`
	Email        Optional[string] `json:"email"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DisplayName 优先使用全名，没有全名时退回到用户名
func (a *Account) DisplayName() string {
	if name, ok := a.FullName.Get(); ok && name != "" {
		return name
	}
	return a.Username
}
