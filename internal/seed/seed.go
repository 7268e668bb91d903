package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

// EnsureInitialAdmin 确保数据库中存在初始管理员，已经存在时不做任何修改
func EnsureInitialAdmin(ctx context.Context, cfg *config.Config, repo *repository.Repository) error {
	// 先检查是否存在，避免每次启动都做一次 bcrypt
	_, err := repo.GetAccountByUsername(ctx, cfg.InitialAdmin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	passwordHash, err := auth.HashPassword(cfg.InitialAdmin.Password, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	admin := &domain.Account{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
	}
	if cfg.InitialAdmin.FullName != "" {
		admin.FullName = domain.Some(cfg.InitialAdmin.FullName)
	}

	if err := repo.CreateAccount(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			// 说明数据库中已经存在初始管理员
			return nil
		}
		return err
	}

	slog.Info("已创建初始管理员", "username", admin.Username)
	return nil
}

type MemberRecord struct {
	Username string
	FullName string
	MemberID string
	Email    string
	Role     domain.Role
}

func (m MemberRecord) Account(passwordHash string) *domain.Account {
	account := &domain.Account{
		Username:     m.Username,
		PasswordHash: passwordHash,
		Role:         m.Role,
	}
	if m.FullName != "" {
		account.FullName = domain.Some(m.FullName)
	}
	if m.MemberID != "" {
		account.MemberID = domain.Some(m.MemberID)
	}
	if m.Email != "" {
		account.Email = domain.Some(m.Email)
	}
	return account
}

// ReadMemberFile 根据扩展名读取 .csv 或 .xlsx 文件中的所有行
func ReadMemberFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(file)
	case ".xlsx":
		return ReadXLSX(file)
	default:
		return nil, fmt.Errorf("不支持的文件类型: %s", filepath.Ext(path))
	}
}

func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	return reader.ReadAll()
}

// ReadXLSX 只读取第一个工作表
func ReadXLSX(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("没有找到工作表")
	}

	return file.GetRows(sheetName)
}

// ParseMemberRows 第一行是表头，必须包含 username 列，其余列可选：full_name, member_id, email, role
func ParseMemberRows(rows [][]string) ([]MemberRecord, error) {
	if len(rows) == 0 {
		return nil, errors.New("文件为空")
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	if _, ok := columns["username"]; !ok {
		return nil, errors.New("缺少 username 列")
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]MemberRecord, 0, len(rows)-1)
	for lineNo, row := range rows[1:] {
		record := MemberRecord{
			Username: cell(row, "username"),
			FullName: cell(row, "full_name"),
			MemberID: cell(row, "member_id"),
			Email:    cell(row, "email"),
			Role:     domain.Role(cell(row, "role")),
		}
		if record.Username == "" {
			slog.Warn("跳过没有用户名的行", "line", lineNo+2)
			continue
		}

		switch record.Role {
		case "":
			record.Role = domain.RoleMember
		case domain.RoleAdmin, domain.RoleMember:
		default:
			return nil, fmt.Errorf("第 %d 行的角色无效: %s", lineNo+2, record.Role)
		}

		records = append(records, record)
	}

	return records, nil
}

type ImportResult struct {
	Created int
	Skipped int
}

// ImportMembers 逐个插入成员，违反唯一约束的成员会被跳过，所有成员使用同一个初始密码
func ImportMembers(ctx context.Context, repo *repository.Repository, records []MemberRecord, passwordHash string) (ImportResult, error) {
	result := ImportResult{}

	for _, record := range records {
		err := repo.CreateAccount(ctx, record.Account(passwordHash))
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, repository.ErrDuplicateUsername),
			errors.Is(err, repository.ErrDuplicateMemberID),
			errors.Is(err, repository.ErrDuplicateEmail):
			slog.Warn("跳过重复的成员", "username", record.Username, "error", err)
			result.Skipped++
		default:
			return result, err
		}
	}

	return result, nil
}
