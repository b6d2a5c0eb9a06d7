package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-medic/internal/apperr"
	"remote-medic/internal/service"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)

	u, err := service.Register(db, service.RegisterInput{
		Username: "Alice_01",
		Email:    "Alice@Example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice_01", u.Username) // normalized
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsAdmin)

	// 用户名或邮箱都能登录
	got, err := service.Login(db, "alice_01", "Sup3rSecret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLogin)

	got, err = service.Login(db, "ALICE@example.com", "Sup3rSecret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	db := newTestDB(t)

	cases := []struct {
		name string
		in   service.RegisterInput
	}{
		{"short username", service.RegisterInput{Username: "ab", Email: "a@b.com", Password: "Sup3rSecret"}},
		{"bad email", service.RegisterInput{Username: "alice", Email: "not-an-email", Password: "Sup3rSecret"}},
		{"weak password", service.RegisterInput{Username: "alice", Email: "a@b.com", Password: "password"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(db, tc.in)
			require.Error(t, err)
			ae, ok := apperr.From(err)
			require.True(t, ok)
			assert.Equal(t, 400, ae.Status)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "alice")

	_, err := service.Register(db, service.RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "Sup3rSecret",
	})
	require.Error(t, err)
	ae, _ := apperr.From(err)
	assert.Equal(t, 400, ae.Status)
	assert.Equal(t, "username already exists", ae.Msg)

	_, err = service.Register(db, service.RegisterInput{
		Username: "bob", Email: "alice@example.com", Password: "Sup3rSecret",
	})
	require.Error(t, err)
	ae, _ = apperr.From(err)
	assert.Equal(t, "email already registered", ae.Msg)
}

func TestLoginFailures(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "alice")
	seedRawUser(t, db, "ghost", false)

	_, err := service.Login(db, "alice", "WrongPass1")
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.Status)

	_, err = service.Login(db, "nobody", "Sup3rSecret")
	ae, _ = apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.Status)

	_, err = service.Login(db, "ghost", "Sup3rSecret")
	ae, _ = apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.Status)
	assert.Equal(t, "account deactivated", ae.Msg)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "alice")

	err := service.ChangePassword(db, u.ID, "WrongOld1", "N3wSecret!")
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.Status)

	require.NoError(t, service.ChangePassword(db, u.ID, "Sup3rSecret", "N3wSecret1"))
	_, err = service.Login(db, "alice", "N3wSecret1")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	got, err := service.UpdateProfile(db, u.ID, map[string]any{
		"first_name": "Alice",
		"last_name":  "Doe",
		"work_start": "09:00",
		"work_end":   "17:00",
		"work_days":  "1,2,3,4,5",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", got.FullName())

	// 已占用的邮箱不能换过去
	_, err = service.UpdateProfile(db, u.ID, map[string]any{"email": "bob@example.com"})
	ae, _ := apperr.From(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.Status)

	// 受保护字段静默忽略
	got, err = service.UpdateProfile(db, u.ID, map[string]any{
		"is_admin":   true,
		"first_name": "Alicia",
	})
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, "Alicia", *got.FirstName)
}
