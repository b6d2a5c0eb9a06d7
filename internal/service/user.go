package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/domain"
	"remote-medic/internal/mapper"
)

func GetUser(tx *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	err := tx.First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("get user failed", err)
	}
	return &u, nil
}

func ListUsers(tx *gorm.DB) ([]domain.User, error) {
	var users []domain.User
	if err := tx.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, apperr.Internal("list users failed", err)
	}
	return users, nil
}

// SetUserActive flips the active flag. A user cannot deactivate their own
// account.
func SetUserActive(tx *gorm.DB, callerID, targetID uint, active bool) (*domain.User, error) {
	if !active && callerID == targetID {
		return nil, apperr.BadRequest("cannot deactivate your own account")
	}
	u, err := GetUser(tx, targetID)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(u).Update("is_active", active).Error; err != nil {
		return nil, apperr.Internal("update user failed", err)
	}
	u.IsActive = active
	return u, nil
}

// DeleteUser removes the user and their patient assignments. Patients on
// the other side of the association are untouched.
func DeleteUser(tx *gorm.DB, id uint) error {
	if _, err := GetUser(tx, id); err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", id).Delete(&domain.UserPatient{}).Error; err != nil {
		return apperr.Internal("delete user failed", err)
	}
	if err := tx.Delete(&domain.User{}, id).Error; err != nil {
		return apperr.Internal("delete user failed", err)
	}
	return nil
}

// UserDTO serializes a user for API responses: hash stays hidden, the
// derived full-name and working-hours flags are joined in.
func UserDTO(u *domain.User) map[string]any {
	out := mapper.ToMap(u, []string{"password_hash"}, false)
	out["full_name"] = u.FullName()
	out["in_working_hours"] = u.InWorkingHours(time.Now())
	return out
}

func UserDTOs(users []domain.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for i := range users {
		out = append(out, UserDTO(&users[i]))
	}
	return out
}
