package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/domain"
	"remote-medic/internal/mapper"
)

func ListMedicines(tx *gorm.DB, activeOnly bool) ([]domain.Medicine, error) {
	q := tx.Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var meds []domain.Medicine
	if err := q.Find(&meds).Error; err != nil {
		return nil, apperr.Internal("list medicines failed", err)
	}
	return meds, nil
}

func PaginateMedicines(tx *gorm.DB, page, perPage int, activeOnly bool) ([]domain.Medicine, int64, error) {
	if !ValidPage(page, perPage) {
		return nil, 0, apperr.BadRequest("invalid pagination parameters")
	}
	q := tx.Model(&domain.Medicine{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count medicines failed", err)
	}
	var meds []domain.Medicine
	if err := q.Order("id").Offset((page - 1) * perPage).Limit(perPage).Find(&meds).Error; err != nil {
		return nil, 0, apperr.Internal("list medicines failed", err)
	}
	return meds, total, nil
}

func GetMedicine(tx *gorm.DB, id uint) (*domain.Medicine, error) {
	var m domain.Medicine
	err := tx.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("medicine not found")
	}
	if err != nil {
		return nil, apperr.Internal("get medicine failed", err)
	}
	return &m, nil
}

func CreateMedicine(tx *gorm.DB, data map[string]any) (*domain.Medicine, error) {
	for _, f := range []string{"name", "dosage"} {
		if v, ok := data[f].(string); !ok || v == "" {
			return nil, apperr.BadRequest("field " + f + " is required")
		}
	}
	m, err := mapper.Create[domain.Medicine](data, nil)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	m.IsActive = true
	if err := tx.Create(m).Error; err != nil {
		return nil, apperr.Internal("create medicine failed", err)
	}
	return m, nil
}

func UpdateMedicine(tx *gorm.DB, id uint, data map[string]any) (*domain.Medicine, error) {
	m, err := GetMedicine(tx, id)
	if err != nil {
		return nil, err
	}
	if err := mapper.Update(m, data, nil, true); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	if err := tx.Save(m).Error; err != nil {
		return nil, apperr.Internal("update medicine failed", err)
	}
	return m, nil
}

func DeleteMedicine(tx *gorm.DB, id uint) error {
	if _, err := GetMedicine(tx, id); err != nil {
		return err
	}
	if err := tx.Where("medicine_id = ?", id).Delete(&domain.PatientMedicine{}).Error; err != nil {
		return apperr.Internal("delete medicine failed", err)
	}
	if err := tx.Delete(&domain.Medicine{}, id).Error; err != nil {
		return apperr.Internal("delete medicine failed", err)
	}
	return nil
}

func SetMedicineActive(tx *gorm.DB, id uint, active bool) (*domain.Medicine, error) {
	m, err := GetMedicine(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(m).Update("is_active", active).Error; err != nil {
		return nil, apperr.Internal("update medicine failed", err)
	}
	m.IsActive = active
	return m, nil
}

// SearchMedicines matches by name, case-insensitive. The result page is
// capped at 20 rows; the returned total is the uncapped match count.
func SearchMedicines(tx *gorm.DB, query string, activeOnly bool) ([]domain.Medicine, int64, error) {
	q := tx.Model(&domain.Medicine{}).Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("search medicines failed", err)
	}
	var meds []domain.Medicine
	if err := q.Order("name").Limit(20).Find(&meds).Error; err != nil {
		return nil, 0, apperr.Internal("search medicines failed", err)
	}
	return meds, total, nil
}

// AssignMedicine creates or updates the patient↔medicine row: re-assigning
// an existing pair refreshes dose and notes (upsert semantics).
func AssignMedicine(tx *gorm.DB, patientID, medicineID uint, dosePerTake, notes string) (*domain.PatientMedicine, error) {
	if _, err := GetPatient(tx, patientID); err != nil {
		return nil, err
	}
	if _, err := GetMedicine(tx, medicineID); err != nil {
		return nil, err
	}
	if dosePerTake == "" {
		dosePerTake = "1"
	}

	var existing domain.PatientMedicine
	err := tx.Where("patient_id = ? AND medicine_id = ?", patientID, medicineID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		a := domain.PatientMedicine{
			PatientID:   patientID,
			MedicineID:  medicineID,
			DosePerTake: dosePerTake,
			Notes:       notes,
		}
		if err := tx.Create(&a).Error; err != nil {
			return nil, apperr.Internal("assign medicine failed", err)
		}
		return &a, nil
	case err != nil:
		return nil, apperr.Internal("assign medicine failed", err)
	default:
		if err := tx.Model(&domain.PatientMedicine{}).
			Where("patient_id = ? AND medicine_id = ?", patientID, medicineID).
			Updates(map[string]any{"dose_per_take": dosePerTake, "notes": notes}).Error; err != nil {
			return nil, apperr.Internal("assign medicine failed", err)
		}
		existing.DosePerTake = dosePerTake
		existing.Notes = notes
		return &existing, nil
	}
}

func UnassignMedicine(tx *gorm.DB, patientID, medicineID uint) error {
	res := tx.Where("patient_id = ? AND medicine_id = ?", patientID, medicineID).Delete(&domain.PatientMedicine{})
	if res.Error != nil {
		return apperr.Internal("unassign medicine failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("assignment not found")
	}
	return nil
}

func BulkUnassignMedicines(tx *gorm.DB, patientID uint, medicineIDs []uint) (int64, error) {
	if len(medicineIDs) == 0 {
		return 0, apperr.BadRequest("no medicine ids provided")
	}
	res := tx.Where("patient_id = ? AND medicine_id IN ?", patientID, medicineIDs).Delete(&domain.PatientMedicine{})
	if res.Error != nil {
		return 0, apperr.Internal("bulk unassign failed", res.Error)
	}
	return res.RowsAffected, nil
}

// MedicineWithDose is a patient's medicine with the per-assignment metadata
// joined in.
type MedicineWithDose struct {
	Medicine    domain.Medicine
	DosePerTake string
	Notes       string
}

// PatientMedicines lists a patient's active medicines with dose and notes.
func PatientMedicines(tx *gorm.DB, patientID uint) ([]MedicineWithDose, error) {
	if _, err := GetPatient(tx, patientID); err != nil {
		return nil, err
	}
	var assigns []domain.PatientMedicine
	if err := tx.Where("patient_id = ?", patientID).Find(&assigns).Error; err != nil {
		return nil, apperr.Internal("list patient medicines failed", err)
	}
	if len(assigns) == 0 {
		return []MedicineWithDose{}, nil
	}

	ids := make([]uint, 0, len(assigns))
	byID := make(map[uint]domain.PatientMedicine, len(assigns))
	for _, a := range assigns {
		ids = append(ids, a.MedicineID)
		byID[a.MedicineID] = a
	}

	var meds []domain.Medicine
	err := tx.Where("id IN ? AND is_active = ?", ids, true).Order("id").Find(&meds).Error
	if err != nil {
		return nil, apperr.Internal("list patient medicines failed", err)
	}

	out := make([]MedicineWithDose, 0, len(meds))
	for _, m := range meds {
		a := byID[m.ID]
		out = append(out, MedicineWithDose{Medicine: m, DosePerTake: a.DosePerTake, Notes: a.Notes})
	}
	return out, nil
}
