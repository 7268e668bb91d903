package mail

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type kind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeAccountCreated: {
		subject:  "Shift Roster - Your account",
		template: "account_created.html",
		data:     func() any { return &domain.AccountCreatedMailData{} },
	},
	domain.MailTypeShiftAssigned: {
		subject:  "Shift Roster - New shift assigned",
		template: "shift_assigned.html",
		data:     func() any { return &domain.ShiftAssignedMailData{} },
	},
}

type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// Build 把队列中的一条消息转换成待发送的邮件，无法处理的消息返回错误，调用方不应重新入队
func Build(body []byte, from string) (*mail.Msg, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	k, ok := kinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %s", env.Type)
	}

	data := k.data()
	if err := json.Unmarshal(env.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(env.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	m.Subject(k.subject)

	if err := m.SetBodyHTMLTemplate(templates.Lookup(k.template), data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return m, nil
}
