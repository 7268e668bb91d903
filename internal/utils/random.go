package utils

import (
	"math/rand"
	"strings"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1

	var b strings.Builder
	b.WriteString(surname)
	for i := 0; i < nameLength; i++ {
		b.WriteString(commonNameCharacters[rand.Intn(len(commonNameCharacters))])
	}
	return b.String()
}

const digits = "0123456789"

func randomDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}

// GenerateUsernameFromChineseName 取每个字拼音的一个前缀再加上几位数字，例如 "张伟" -> "zhw42"
func GenerateUsernameFromChineseName(chineseName string) string {
	var b strings.Builder
	for _, py := range pinyin.LazyConvert(chineseName, nil) {
		length := rand.Intn(len(py)) + 1
		b.WriteString(py[:length])
	}
	b.WriteString(randomDigits(rand.Intn(3) + 1))

	return b.String()
}

// GenerateRandomMember 生成一个普通成员，passwordHash 由调用方计算以免重复哈希
func GenerateRandomMember(passwordHash string, emailDomain string) *domain.Account {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)

	return &domain.Account{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         domain.RoleMember,
		FullName:     domain.Some(fullName),
		MemberID:     domain.Some("M" + randomDigits(6)),
		Email:        domain.Some(username + "@" + emailDomain),
	}
}

func GenerateRandomShiftType() domain.ShiftType {
	return domain.ShiftTypes[rand.Intn(len(domain.ShiftTypes))]
}

// GenerateRandomShifts 为每个成员在 dates 中的每一天随机生成一个班次
func GenerateRandomShifts(accounts []*domain.Account, dates []time.Time) []*domain.Shift {
	shifts := make([]*domain.Shift, 0, len(accounts)*len(dates))
	for _, account := range accounts {
		for _, date := range dates {
			shifts = append(shifts, &domain.Shift{
				AccountID: account.ID,
				Date:      domain.DateOf(date),
				Type:      GenerateRandomShiftType(),
			})
		}
	}
	return shifts
}
