package domain

import "time"

type Patient struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Surname      string    `gorm:"size:150;not null" json:"surname"`
	Phone        string    `gorm:"size:25;not null" json:"phone"`
	Instructions string    `gorm:"type:text;not null" json:"instructions"`
	Quit         bool      `gorm:"not null;default:false" json:"quit"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Patient) TableName() string { return "patients" }
