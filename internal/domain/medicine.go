package domain

import "time"

type Medicine struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null;index" json:"name"`
	Dosage       string `gorm:"size:50;not null" json:"dosage"`
	Description  string `gorm:"type:text" json:"description"`
	Instructions string `gorm:"type:text" json:"instructions"`

	// 服药频率：按小时或按天，二选一（都可为空）
	FrequencyHours *int `json:"frequency_hours"`
	FrequencyDays  *int `json:"frequency_days"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Medicine) TableName() string { return "medicines" }
