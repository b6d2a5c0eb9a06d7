package service

import (
	"errors"

	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/domain"
	"remote-medic/internal/mapper"
)

// ValidPage enforces the pagination contract: page ≥ 1, per_page in [1,100].
func ValidPage(page, perPage int) bool {
	return page >= 1 && perPage >= 1 && perPage <= 100
}

func ListPatients(tx *gorm.DB) ([]domain.Patient, error) {
	var patients []domain.Patient
	if err := tx.Order("id").Find(&patients).Error; err != nil {
		return nil, apperr.Internal("list patients failed", err)
	}
	return patients, nil
}

func PaginatePatients(tx *gorm.DB, page, perPage int) ([]domain.Patient, int64, error) {
	if !ValidPage(page, perPage) {
		return nil, 0, apperr.BadRequest("invalid pagination parameters")
	}
	var total int64
	if err := tx.Model(&domain.Patient{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count patients failed", err)
	}
	var patients []domain.Patient
	if err := tx.Order("id").Offset((page - 1) * perPage).Limit(perPage).Find(&patients).Error; err != nil {
		return nil, 0, apperr.Internal("list patients failed", err)
	}
	return patients, total, nil
}

func GetPatient(tx *gorm.DB, id uint) (*domain.Patient, error) {
	var p domain.Patient
	err := tx.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("patient not found")
	}
	if err != nil {
		return nil, apperr.Internal("get patient failed", err)
	}
	return &p, nil
}

func PatientExists(tx *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := tx.Model(&domain.Patient{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperr.Internal("patient lookup failed", err)
	}
	return count > 0, nil
}

func CreatePatient(tx *gorm.DB, data map[string]any) (*domain.Patient, error) {
	for _, f := range []string{"name", "surname", "phone", "instructions"} {
		if v, ok := data[f].(string); !ok || v == "" {
			return nil, apperr.BadRequest("field " + f + " is required")
		}
	}
	p, err := mapper.Create[domain.Patient](data, nil)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	if err := tx.Create(p).Error; err != nil {
		return nil, apperr.Internal("create patient failed", err)
	}
	return p, nil
}

// UpdatePatient applies a partial patch: omitted or null fields are left
// untouched, id/created_at can never change.
func UpdatePatient(tx *gorm.DB, id uint, data map[string]any) (*domain.Patient, error) {
	p, err := GetPatient(tx, id)
	if err != nil {
		return nil, err
	}
	if err := mapper.Update(p, data, nil, true); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	if err := tx.Save(p).Error; err != nil {
		return nil, apperr.Internal("update patient failed", err)
	}
	return p, nil
}

// DeletePatient removes the patient and every association row pointing at
// it, in one transaction. Users and medicines survive.
func DeletePatient(tx *gorm.DB, id uint) error {
	if _, err := GetPatient(tx, id); err != nil {
		return err
	}
	if err := tx.Where("patient_id = ?", id).Delete(&domain.UserPatient{}).Error; err != nil {
		return apperr.Internal("delete patient failed", err)
	}
	if err := tx.Where("patient_id = ?", id).Delete(&domain.PatientMedicine{}).Error; err != nil {
		return apperr.Internal("delete patient failed", err)
	}
	if err := tx.Delete(&domain.Patient{}, id).Error; err != nil {
		return apperr.Internal("delete patient failed", err)
	}
	return nil
}

func UnassignedPatients(tx *gorm.DB) ([]domain.Patient, error) {
	var patients []domain.Patient
	err := tx.
		Where("NOT EXISTS (SELECT 1 FROM user_patient_assignments a WHERE a.patient_id = patients.id)").
		Order("created_at desc").
		Find(&patients).Error
	if err != nil {
		return nil, apperr.Internal("list unassigned patients failed", err)
	}
	return patients, nil
}

// AssignPatientToUser creates the assignment or, when the pair already
// exists, updates its role metadata (upsert semantics).
func AssignPatientToUser(tx *gorm.DB, userID, patientID uint, role string) error {
	if _, err := GetUser(tx, userID); err != nil {
		return err
	}
	if _, err := GetPatient(tx, patientID); err != nil {
		return err
	}
	if role == "" {
		role = "assigned"
	}

	var existing domain.UserPatient
	err := tx.Where("user_id = ? AND patient_id = ?", userID, patientID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		a := domain.UserPatient{UserID: userID, PatientID: patientID, Role: role}
		if err := tx.Create(&a).Error; err != nil {
			return apperr.Internal("assign patient failed", err)
		}
	case err != nil:
		return apperr.Internal("assign patient failed", err)
	default:
		if err := tx.Model(&domain.UserPatient{}).
			Where("user_id = ? AND patient_id = ?", userID, patientID).
			Update("role", role).Error; err != nil {
			return apperr.Internal("assign patient failed", err)
		}
	}
	return nil
}

func UnassignPatientFromUser(tx *gorm.DB, userID, patientID uint) error {
	res := tx.Where("user_id = ? AND patient_id = ?", userID, patientID).Delete(&domain.UserPatient{})
	if res.Error != nil {
		return apperr.Internal("unassign patient failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("assignment not found")
	}
	return nil
}

// PatientsOfUser lists the patients assigned to a carer.
func PatientsOfUser(tx *gorm.DB, userID uint) ([]domain.Patient, error) {
	if _, err := GetUser(tx, userID); err != nil {
		return nil, err
	}
	var patients []domain.Patient
	err := tx.
		Joins("JOIN user_patient_assignments a ON a.patient_id = patients.id").
		Where("a.user_id = ?", userID).
		Order("patients.id").
		Find(&patients).Error
	if err != nil {
		return nil, apperr.Internal("list user patients failed", err)
	}
	return patients, nil
}

func UsersOfPatient(tx *gorm.DB, patientID uint) ([]domain.User, error) {
	if _, err := GetPatient(tx, patientID); err != nil {
		return nil, err
	}
	var users []domain.User
	err := tx.
		Joins("JOIN user_patient_assignments a ON a.user_id = users.id").
		Where("a.patient_id = ?", patientID).
		Order("users.id").
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal("list patient users failed", err)
	}
	return users, nil
}
