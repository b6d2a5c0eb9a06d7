package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/domain"
	"remote-medic/internal/mapper"
	"remote-medic/pkg/utils"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func ValidUsername(s string) bool {
	return len(s) >= 3 && len(s) <= 64 && usernameRe.MatchString(s)
}

func ValidEmail(s string) bool {
	return s != "" && len(s) <= 120 && emailRe.MatchString(s)
}

// ValidPassword: at least 8 chars with upper, lower and digit.
func ValidPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

func Register(tx *gorm.DB, in RegisterInput) (*domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if !ValidUsername(username) {
		return nil, apperr.BadRequest("invalid username")
	}
	if !ValidEmail(email) {
		return nil, apperr.BadRequest("invalid email")
	}
	if !ValidPassword(in.Password) {
		return nil, apperr.BadRequest("password must be at least 8 characters with upper, lower and digit")
	}

	var count int64
	if err := tx.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperr.Internal("register failed", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("username already exists")
	}
	if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Internal("register failed", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("email already registered")
	}

	u := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: utils.HashPassword(in.Password),
		FirstName:    trimPtr(in.FirstName),
		LastName:     trimPtr(in.LastName),
		IsActive:     true,
	}
	if err := tx.Create(&u).Error; err != nil {
		if isDupKey(err) {
			return nil, apperr.Conflict("username or email already registered")
		}
		return nil, apperr.Internal("register failed", err)
	}
	return &u, nil
}

// Login accepts username or email as identifier.
func Login(tx *gorm.DB, identifier, password string) (*domain.User, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))

	var u domain.User
	err := tx.Where("username = ? OR email = ?", id, id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("login failed", err)
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account deactivated")
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, apperr.Unauthorized("incorrect password")
	}

	now := time.Now()
	u.LastLogin = &now
	if err := tx.Model(&u).Update("last_login", now).Error; err != nil {
		return nil, apperr.Internal("login failed", err)
	}
	return &u, nil
}

func ChangePassword(tx *gorm.DB, userID uint, current, newPassword string) error {
	u, err := GetUser(tx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(current, u.PasswordHash) {
		return apperr.BadRequest("current password is incorrect")
	}
	if !ValidPassword(newPassword) {
		return apperr.BadRequest("new password does not meet requirements")
	}
	if err := tx.Model(u).Update("password_hash", utils.HashPassword(newPassword)).Error; err != nil {
		return apperr.Internal("change password failed", err)
	}
	return nil
}

// profile fields a user may never change about themselves through /me.
var profileExcluded = []string{
	"id", "created_at", "updated_at",
	"username", "password_hash", "is_admin", "is_active", "last_login",
}

// UpdateProfile applies a partial patch to the caller's own record.
func UpdateProfile(tx *gorm.DB, userID uint, data map[string]any) (*domain.User, error) {
	u, err := GetUser(tx, userID)
	if err != nil {
		return nil, err
	}

	if raw, ok := data["email"]; ok && raw != nil {
		email, _ := raw.(string)
		email = strings.ToLower(strings.TrimSpace(email))
		if !ValidEmail(email) {
			return nil, apperr.BadRequest("invalid email")
		}
		if email != u.Email {
			var count int64
			if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
				return nil, apperr.Internal("update profile failed", err)
			}
			if count > 0 {
				return nil, apperr.Conflict("email already registered")
			}
		}
		data["email"] = email
	}

	if err := mapper.Update(u, data, profileExcluded, true); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	if err := tx.Save(u).Error; err != nil {
		return nil, apperr.Internal("update profile failed", err)
	}
	return u, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，避免驱动差异
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "unique failed")
}
