package handler

import (
	"remote-medic/internal/domain"
	"remote-medic/internal/mapper"
	"remote-medic/internal/service"
)

// DTO conversion runs through the generic mapper so temporal fields come
// out as ISO-8601 strings everywhere.

func patientDTO(p *domain.Patient) map[string]any {
	return mapper.ToMap(p, nil, false)
}

func patientDTOs(patients []domain.Patient) []map[string]any {
	out := make([]map[string]any, 0, len(patients))
	for i := range patients {
		out = append(out, patientDTO(&patients[i]))
	}
	return out
}

func medicineDTO(m *domain.Medicine) map[string]any {
	return mapper.ToMap(m, nil, false)
}

func medicineDTOs(meds []domain.Medicine) []map[string]any {
	out := make([]map[string]any, 0, len(meds))
	for i := range meds {
		out = append(out, medicineDTO(&meds[i]))
	}
	return out
}

func medicineWithDoseDTOs(rows []service.MedicineWithDose) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for i := range rows {
		d := medicineDTO(&rows[i].Medicine)
		d["dose_per_take"] = rows[i].DosePerTake
		d["notes"] = rows[i].Notes
		out = append(out, d)
	}
	return out
}
