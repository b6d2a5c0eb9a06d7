package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "remote-medic",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue(42, "ana", true)
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), c.UID)
	assert.Equal(t, "ana", c.Username)
	assert.True(t, c.Admin)
}

func TestParseRejectsGarbageAndWrongSecret(t *testing.T) {
	j := newJWTer()
	_, err := j.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := &JWTer{Secret: []byte("other"), Issuer: j.Issuer, AccessTTL: j.AccessTTL}
	tok, err := other.Issue(1, "x", false)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	j := newJWTer()
	j.AccessTTL = -2 * time.Minute // beyond the 60s leeway
	tok, err := j.Issue(1, "x", false)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenNotAcceptedAsAccess(t *testing.T) {
	j := newJWTer()
	ref, err := j.IssueRefresh(7, "ana", false)
	require.NoError(t, err)

	_, err = j.Parse(ref)
	assert.ErrorIs(t, err, ErrInvalidToken)

	c, err := j.ParseRefresh(ref)
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.UID)

	acc, err := j.Issue(7, "ana", false)
	require.NoError(t, err)
	_, err = j.ParseRefresh(acc)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
