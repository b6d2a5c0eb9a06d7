package domain

import (
	"strconv"
	"strings"
	"time"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Username     string  `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string  `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	FirstName    *string `gorm:"size:64" json:"first_name"`
	LastName     *string `gorm:"size:64" json:"last_name"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
	IsAdmin      bool    `gorm:"not null;default:false" json:"is_admin"`

	// 工作时段（可选）：HH:MM + 周几列表，如 "1,2,3,4,5"
	WorkStart *string `gorm:"size:5" json:"work_start"`
	WorkEnd   *string `gorm:"size:5" json:"work_end"`
	WorkDays  *string `gorm:"size:32" json:"work_days"`

	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	if u.FirstName != nil && u.LastName != nil && *u.FirstName != "" && *u.LastName != "" {
		return *u.FirstName + " " + *u.LastName
	}
	return u.Username
}

// InWorkingHours reports whether now falls inside the user's configured
// work window. Users without a window are always considered off-schedule.
func (u *User) InWorkingHours(now time.Time) bool {
	if u.WorkStart == nil || u.WorkEnd == nil || u.WorkDays == nil {
		return false
	}
	day := int(now.Weekday())
	ok := false
	for _, d := range strings.Split(*u.WorkDays, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(d)); err == nil && n == day {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	start, err1 := parseClock(*u.WorkStart)
	end, err2 := parseClock(*u.WorkEnd)
	if err1 != nil || err2 != nil {
		return false
	}
	cur := now.Hour()*60 + now.Minute()
	if end < start { // 跨午夜
		return cur >= start || cur < end
	}
	return cur >= start && cur < end
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
