package domain

import "time"

type ShiftType string

const (
	ShiftUnassigned ShiftType = ""
	ShiftMorning    ShiftType = "Morning"
	ShiftAfternoon  ShiftType = "Afternoon"
	ShiftNight      ShiftType = "Night"
	ShiftOff        ShiftType = "Off"
)

var ShiftTypes = []ShiftType{ShiftMorning, ShiftAfternoon, ShiftNight, ShiftOff}

func (t ShiftType) Valid() bool {
	switch t {
	case ShiftMorning, ShiftAfternoon, ShiftNight, ShiftOff:
		return true
	}
	return false
}

// Shift 中的 Date 总是 UTC 零点，只有年月日有意义
type Shift struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"accountID"`
	Date      time.Time `json:"date"`
	Type      ShiftType `json:"shiftType"`
}

// DateOf 截断到 UTC 零点，保证同一天的两个值可以直接比较或作为 map 的 key
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD 格式的日期
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}
