package handler

import (
	"context"
	"database/sql"
	"errors"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
)

const (
	usernameExistsNotice = "Username already exists"
	memberIDExistsNotice = "Member ID already exists"
	emailExistsNotice    = "Email already exists"

	// 按字符数校验之后，多字节密码仍可能超过 bcrypt 的字节上限
	passwordTooLongNotice = "Password must be at most 72 bytes"
)

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repository.GetAllAccounts(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.view(w, r, "Team", map[string]any{
		"currentUser": currentAccount(r),
		"accounts":    accounts,
		"roles":       []domain.Role{domain.RoleAdmin, domain.RoleMember},
	})
}

// profileField 区分表单中没有这个字段和字段为空：没有字段时 present 为 false，空值表示清空
func (h *Handler) profileField(form url.Values, key string) (domain.Optional[string], bool) {
	values, present := form[key]
	if !present || len(values) == 0 {
		return domain.None[string](), false
	}

	v := strings.TrimSpace(values[len(values)-1])
	if key == "full_name" {
		// StrictPolicy 会转义实体，这里只需要去掉标签
		v = strings.TrimSpace(html.UnescapeString(h.sanitizer.Sanitize(v)))
	}
	if v == "" {
		return domain.None[string](), true
	}
	return domain.Some(v), true
}

// checkUniqueness 返回第一个冲突字段对应的提示，没有冲突时返回空字符串
func (h *Handler) checkUniqueness(ctx context.Context, account *domain.Account, exceptID int64) (string, error) {
	isExists, err := h.repository.CheckUsernameIfExists(ctx, account.Username, exceptID)
	if err != nil {
		return "", err
	}
	if isExists {
		return usernameExistsNotice, nil
	}

	if memberID, ok := account.MemberID.Get(); ok {
		isExists, err := h.repository.CheckMemberIDIfExists(ctx, memberID, exceptID)
		if err != nil {
			return "", err
		}
		if isExists {
			return memberIDExistsNotice, nil
		}
	}

	if email, ok := account.Email.Get(); ok {
		isExists, err := h.repository.CheckEmailIfExists(ctx, email, exceptID)
		if err != nil {
			return "", err
		}
		if isExists {
			return emailExistsNotice, nil
		}
	}

	return "", nil
}

// duplicateNotice 处理检查之后才出现的并发冲突
func duplicateNotice(err error) (string, bool) {
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return usernameExistsNotice, true
	case errors.Is(err, repository.ErrDuplicateMemberID):
		return memberIDExistsNotice, true
	case errors.Is(err, repository.ErrDuplicateEmail):
		return emailExistsNotice, true
	}
	return "", false
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `schema:"username" validate:"required,max=80"`
		Password string `schema:"password" validate:"required,max=72"`
		Role     string `schema:"role" validate:"omitempty,oneof=Admin Member"`
		FullName string `schema:"full_name" validate:"max=100"`
		MemberID string `schema:"member_id" validate:"max=50"`
		Email    string `schema:"email" validate:"omitempty,email,max=120"`
	}

	if err := h.readForm(r, &req); err != nil {
		h.redirect(w, r, "/team", h.translateError(err))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		h.redirect(w, r, "/team", h.translateError(err))
		return
	}

	account := &domain.Account{
		Username: req.Username,
		Role:     domain.Role(req.Role),
	}
	if account.Role == "" {
		account.Role = domain.RoleMember
	}
	account.FullName, _ = h.profileField(r.PostForm, "full_name")
	account.MemberID, _ = h.profileField(r.PostForm, "member_id")
	account.Email, _ = h.profileField(r.PostForm, "email")

	notice, err := h.checkUniqueness(r.Context(), account, 0)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if notice != "" {
		h.redirect(w, r, "/team", notice)
		return
	}

	account.PasswordHash, err = auth.HashPassword(req.Password, h.config.Auth.BcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			h.redirect(w, r, "/team", passwordTooLongNotice)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	if err := h.repository.CreateAccount(r.Context(), account); err != nil {
		if notice, ok := duplicateNotice(err); ok {
			h.redirect(w, r, "/team", notice)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	if email, ok := account.Email.Get(); ok {
		h.notify(r.Context(), domain.MailMessage{
			Type: domain.MailTypeAccountCreated,
			To:   email,
			Data: domain.AccountCreatedMailData{
				FullName: account.DisplayName(),
				Username: account.Username,
				Role:     account.Role,
			},
		})
	}

	h.redirect(w, r, "/team", "Member added successfully")
}

func (h *Handler) EditMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `schema:"username" validate:"required,max=80"`
		Role     string `schema:"role" validate:"required,oneof=Admin Member"`
		Password string `schema:"password" validate:"omitempty,max=72"`
		FullName string `schema:"full_name" validate:"max=100"`
		MemberID string `schema:"member_id" validate:"max=50"`
		Email    string `schema:"email" validate:"omitempty,email,max=120"`
	}

	if err := h.readForm(r, &req); err != nil {
		h.redirect(w, r, "/team", h.translateError(err))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		h.redirect(w, r, "/team", h.translateError(err))
		return
	}

	member := r.Context().Value(MemberCtxKey).(*domain.Account)
	updated := *member
	updated.Username = req.Username
	updated.Role = domain.Role(req.Role)
	if v, present := h.profileField(r.PostForm, "full_name"); present {
		updated.FullName = v
	}
	if v, present := h.profileField(r.PostForm, "member_id"); present {
		updated.MemberID = v
	}
	if v, present := h.profileField(r.PostForm, "email"); present {
		updated.Email = v
	}

	notice, err := h.checkUniqueness(r.Context(), &updated, member.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if notice != "" {
		h.redirect(w, r, "/team", notice)
		return
	}

	// 只有提供了新密码时才重新哈希
	if req.Password != "" {
		updated.PasswordHash, err = auth.HashPassword(req.Password, h.config.Auth.BcryptCost)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				h.redirect(w, r, "/team", passwordTooLongNotice)
				return
			}
			h.internalServerError(w, r, err)
			return
		}
	}

	if err := h.repository.UpdateAccount(r.Context(), &updated); err != nil {
		if notice, ok := duplicateNotice(err); ok {
			h.redirect(w, r, "/team", notice)
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "Member not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.redirect(w, r, "/team", "Member updated successfully")
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	member := r.Context().Value(MemberCtxKey).(*domain.Account)

	if member.ID == currentAccount(r).ID {
		h.redirect(w, r, "/team", "You cannot delete yourself")
		return
	}

	if err := h.repository.DeleteAccount(r.Context(), member.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "Member not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.redirect(w, r, "/team", "Member and their shifts deleted successfully")
}
