package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-medic/internal/apperr"
	"remote-medic/internal/service"
)

func TestCreateMedicine(t *testing.T) {
	db := newTestDB(t)

	_, err := service.CreateMedicine(db, map[string]any{"name": "Paracetamol"})
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.Status)

	m, err := service.CreateMedicine(db, map[string]any{
		"name":            "Paracetamol",
		"dosage":          "500mg",
		"frequency_hours": float64(8), // JSON 数字进来就是 float64
	})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.True(t, m.IsActive)
	require.NotNil(t, m.FrequencyHours)
	assert.Equal(t, 8, *m.FrequencyHours)
}

func TestSetMedicineActive(t *testing.T) {
	db := newTestDB(t)
	m := seedMedicine(t, db, "Paracetamol")

	got, err := service.SetMedicineActive(db, m.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	meds, err := service.ListMedicines(db, true)
	require.NoError(t, err)
	assert.Empty(t, meds)

	meds, err = service.ListMedicines(db, false)
	require.NoError(t, err)
	assert.Len(t, meds, 1)
}

func TestSearchMedicines(t *testing.T) {
	db := newTestDB(t)
	seedMedicine(t, db, "Paracetamol")
	seedMedicine(t, db, "Ibuprofen")
	inactive := seedMedicine(t, db, "Paracetamol Forte")
	_, err := service.SetMedicineActive(db, inactive.ID, false)
	require.NoError(t, err)

	meds, total, err := service.SearchMedicines(db, "PARACET", true)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Paracetamol", meds[0].Name)

	meds, total, err = service.SearchMedicines(db, "paracet", false)
	require.NoError(t, err)
	assert.Len(t, meds, 2)
	assert.EqualValues(t, 2, total)
}

func TestSearchMedicinesCountBeyondPageCap(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 25; i++ {
		seedMedicine(t, db, fmt.Sprintf("Amoxicillin %02d", i))
	}

	// 结果页最多 20 条，count 仍是全部命中数
	meds, total, err := service.SearchMedicines(db, "amoxicillin", true)
	require.NoError(t, err)
	assert.Len(t, meds, 20)
	assert.EqualValues(t, 25, total)
}

func TestAssignMedicineUpsert(t *testing.T) {
	db := newTestDB(t)
	p := seedPatient(t, db, "John")
	m := seedMedicine(t, db, "Paracetamol")

	a, err := service.AssignMedicine(db, p.ID, m.ID, "", "before meals")
	require.NoError(t, err)
	assert.Equal(t, "1", a.DosePerTake) // default dose
	assert.Equal(t, "before meals", a.Notes)

	// 重复分配 → 刷新剂量与备注
	a, err = service.AssignMedicine(db, p.ID, m.ID, "2", "after meals")
	require.NoError(t, err)
	assert.Equal(t, "2", a.DosePerTake)
	assert.Equal(t, "after meals", a.Notes)

	rows, err := service.PatientMedicines(db, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].DosePerTake)

	_, err = service.AssignMedicine(db, p.ID, 9999, "", "")
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.Status)
}

func TestPatientMedicinesSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	p := seedPatient(t, db, "John")
	active := seedMedicine(t, db, "Paracetamol")
	retired := seedMedicine(t, db, "Old Remedy")

	_, err := service.AssignMedicine(db, p.ID, active.ID, "1", "")
	require.NoError(t, err)
	_, err = service.AssignMedicine(db, p.ID, retired.ID, "1", "")
	require.NoError(t, err)
	_, err = service.SetMedicineActive(db, retired.ID, false)
	require.NoError(t, err)

	rows, err := service.PatientMedicines(db, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, active.ID, rows[0].Medicine.ID)
}

func TestBulkUnassignMedicines(t *testing.T) {
	db := newTestDB(t)
	p := seedPatient(t, db, "John")
	m1 := seedMedicine(t, db, "A")
	m2 := seedMedicine(t, db, "B")
	m3 := seedMedicine(t, db, "C")
	for _, m := range []uint{m1.ID, m2.ID, m3.ID} {
		_, err := service.AssignMedicine(db, p.ID, m, "1", "")
		require.NoError(t, err)
	}

	removed, err := service.BulkUnassignMedicines(db, p.ID, []uint{m1.ID, m3.ID, 9999})
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	rows, err := service.PatientMedicines(db, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, m2.ID, rows[0].Medicine.ID)

	_, err = service.BulkUnassignMedicines(db, p.ID, nil)
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.Status)
}

func TestDeleteMedicineCascades(t *testing.T) {
	db := newTestDB(t)
	p := seedPatient(t, db, "John")
	m := seedMedicine(t, db, "Paracetamol")
	_, err := service.AssignMedicine(db, p.ID, m.ID, "1", "")
	require.NoError(t, err)

	require.NoError(t, service.DeleteMedicine(db, m.ID))

	rows, err := service.PatientMedicines(db, p.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = service.GetMedicine(db, m.ID)
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.Status)
}
