package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-medic/internal/apperr"
	"remote-medic/internal/service"
)

func TestSetUserActive(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	target := seedUser(t, db, "bob")

	got, err := service.SetUserActive(db, admin.ID, target.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = service.SetUserActive(db, admin.ID, target.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	// 不能停用自己
	_, err = service.SetUserActive(db, admin.ID, admin.ID, false)
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.Status)
	assert.Equal(t, "cannot deactivate your own account", ae.Msg)

	// 重新激活自己没问题
	_, err = service.SetUserActive(db, admin.ID, admin.ID, true)
	require.NoError(t, err)
}

func TestUserDTO(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "alice")

	dto := service.UserDTO(u)
	assert.NotContains(t, dto, "password_hash")
	assert.EqualValues(t, u.ID, dto["id"])
	assert.Equal(t, "alice", dto["username"])
	assert.Equal(t, "alice", dto["full_name"]) // no names set → username
	assert.Equal(t, false, dto["in_working_hours"])
}

func TestDeleteUserKeepsPatients(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "carer")
	p := seedPatient(t, db, "John")
	require.NoError(t, service.AssignPatientToUser(db, u.ID, p.ID, ""))

	require.NoError(t, service.DeleteUser(db, u.ID))

	_, err := service.GetUser(db, u.ID)
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.Status)

	_, err = service.GetPatient(db, p.ID)
	require.NoError(t, err)

	patients, err := service.UnassignedPatients(db)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}
