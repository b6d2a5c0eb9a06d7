package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"remote-medic/internal/domain"
	"remote-medic/internal/service"
	"remote-medic/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 单连接，避免 :memory: 每个连接各一份库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Patient{},
		&domain.Medicine{},
		&domain.UserPatient{},
		&domain.PatientMedicine{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u, err := service.Register(db, service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	return u
}

func seedPatient(t *testing.T, db *gorm.DB, name string) *domain.Patient {
	t.Helper()
	p, err := service.CreatePatient(db, map[string]any{
		"name":         name,
		"surname":      "Doe",
		"phone":        "+34600000000",
		"instructions": "twice daily check-in",
	})
	require.NoError(t, err)
	return p
}

func seedMedicine(t *testing.T, db *gorm.DB, name string) *domain.Medicine {
	t.Helper()
	m, err := service.CreateMedicine(db, map[string]any{
		"name":   name,
		"dosage": "500mg",
	})
	require.NoError(t, err)
	return m
}

func seedRawUser(t *testing.T, db *gorm.DB, username string, active bool) *domain.User {
	t.Helper()
	u := domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: utils.HashPassword("Sup3rSecret"),
	}
	require.NoError(t, db.Create(&u).Error)
	// default:true 列无法在 Create 里写 false，补一刀
	require.NoError(t, db.Model(&u).Update("is_active", active).Error)
	u.IsActive = active
	return &u
}
