package domain

const (
	MailTypeAccountCreated = "account_created"
	MailTypeShiftAssigned  = "shift_assigned"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type AccountCreatedMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type ShiftAssignedMailData struct {
	FullName  string    `json:"fullName"`
	Date      string    `json:"date"`
	ShiftType ShiftType `json:"shiftType"`
}
