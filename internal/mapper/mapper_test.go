package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-medic/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestToEntityIgnoresUnknownAndExcluded(t *testing.T) {
	p := domain.Patient{ID: 7, Name: "Ana", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	in := map[string]any{
		"id":         float64(99),
		"created_at": "2030-01-01T00:00:00Z",
		"name":       "Eva",
		"no_such":    "field",
		"phone":      "555-0100",
	}
	require.NoError(t, ToEntity(in, &p, nil, false))

	assert.Equal(t, uint(7), p.ID, "id must never be caller-settable")
	assert.Equal(t, 2024, p.CreatedAt.Year())
	assert.Equal(t, "Eva", p.Name)
	assert.Equal(t, "555-0100", p.Phone)
}

func TestToEntityPartialSkipsNulls(t *testing.T) {
	m := domain.Medicine{Name: "Paracetamol", Dosage: "500mg"}
	in := map[string]any{"dosage": nil, "description": "analgesic"}

	require.NoError(t, Update(&m, in, nil, true))
	assert.Equal(t, "500mg", m.Dosage)
	assert.Equal(t, "analgesic", m.Description)
}

func TestToEntityNullOverwriteWhenNotPartial(t *testing.T) {
	h := 8
	m := domain.Medicine{Name: "Ibuprofen", FrequencyHours: &h}
	in := map[string]any{"frequency_hours": nil}

	require.NoError(t, Update(&m, in, nil, false))
	assert.Nil(t, m.FrequencyHours)
}

func TestEmptyPatchIsNoOp(t *testing.T) {
	orig := domain.Patient{ID: 1, Name: "Ana", Surname: "Gomez", Phone: "1", Instructions: "x"}
	p := orig
	require.NoError(t, Update(&p, map[string]any{}, nil, true))
	assert.Equal(t, orig, p)
}

func TestToEntityCoercesJSONNumbersAndTimes(t *testing.T) {
	var m domain.Medicine
	in := map[string]any{
		"frequency_hours": float64(6),
		"start_date":      "2025-03-01",
		"end_date":        "2025-03-15T10:00:00Z",
	}
	require.NoError(t, ToEntity(in, &m, nil, false))
	require.NotNil(t, m.FrequencyHours)
	assert.Equal(t, 6, *m.FrequencyHours)
	require.NotNil(t, m.StartDate)
	assert.Equal(t, time.March, m.StartDate.Month())
	require.NotNil(t, m.EndDate)
	assert.Equal(t, 10, m.EndDate.Hour())
}

func TestToEntityRejectsWrongType(t *testing.T) {
	var p domain.Patient
	err := ToEntity(map[string]any{"name": true}, &p, nil, false)
	assert.Error(t, err)
}

func TestToMapRendersTimesAndNils(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	m := domain.Medicine{ID: 3, Name: "Aspirin", Dosage: "100mg", CreatedAt: created, UpdatedAt: created}

	out := ToMap(&m, []string{"updated_at"}, false)
	assert.Equal(t, "2025-06-01T12:30:00Z", out["created_at"])
	assert.Nil(t, out["frequency_hours"])
	assert.NotContains(t, out, "updated_at")
	assert.Equal(t, uint(3), out["id"])
}

func TestToMapExpandsRelations(t *testing.T) {
	type carer struct {
		ID       uint
		Patients []domain.Patient
	}
	c := carer{ID: 1, Patients: []domain.Patient{{ID: 2, Name: "Ana"}}}

	flat := ToMap(&c, []string{}, false)
	assert.NotContains(t, flat, "patients")

	out := ToMap(&c, []string{}, true)
	items, ok := out["patients"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Ana", items[0]["name"])
}

func TestCreateAndClone(t *testing.T) {
	p, err := Create[domain.Patient](map[string]any{"name": "Luz", "surname": "Diaz", "id": float64(5)}, nil)
	require.NoError(t, err)
	assert.Zero(t, p.ID)
	assert.Equal(t, "Luz", p.Name)

	src := domain.Patient{ID: 9, Name: "Luz", Surname: "Diaz", Phone: "1", CreatedAt: time.Now()}
	cl, err := Clone(&src, []string{"phone"})
	require.NoError(t, err)
	assert.Zero(t, cl.ID)
	assert.Zero(t, cl.CreatedAt)
	assert.Empty(t, cl.Phone)
	assert.Equal(t, "Luz", cl.Name)
}

func TestMerge(t *testing.T) {
	a := domain.User{Username: "ana", FirstName: nil}
	b := domain.User{Username: "other", FirstName: strPtr("Ana"), Email: "ana@x.io"}

	require.NoError(t, Merge(&a, &b, nil, true))
	require.NotNil(t, a.FirstName)
	assert.Equal(t, "Ana", *a.FirstName)
	assert.Equal(t, "ana", a.Username, "prefer_primary keeps existing values")
	assert.Equal(t, "ana@x.io", a.Email, "null primary filled from secondary")

	require.NoError(t, Merge(&a, &b, nil, false))
	assert.Equal(t, "other", a.Username, "secondary wins when not preferring primary")
}
