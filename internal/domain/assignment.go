package domain

import "time"

// 关联表不是纯粹的连接行：它们带自己的元数据，按独立模型处理。

type UserPatient struct {
	UserID     uint      `gorm:"primaryKey" json:"user_id"`
	PatientID  uint      `gorm:"primaryKey" json:"patient_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
	Role       string    `gorm:"size:50;not null;default:assigned" json:"role"`
}

func (UserPatient) TableName() string { return "user_patient_assignments" }

type PatientMedicine struct {
	PatientID   uint      `gorm:"primaryKey" json:"patient_id"`
	MedicineID  uint      `gorm:"primaryKey" json:"medicine_id"`
	DosePerTake string    `gorm:"size:50;not null;default:1" json:"dose_per_take"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PatientMedicine) TableName() string { return "patient_medicines" }
