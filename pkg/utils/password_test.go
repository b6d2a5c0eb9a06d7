package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndCheckPassword(t *testing.T) {
	h := HashPassword("Secret123")
	assert.NotEqual(t, "Secret123", h, "password must never be stored in plaintext")
	assert.True(t, strings.HasPrefix(h, "$2"), "bcrypt hash expected")
	assert.True(t, CheckPassword("Secret123", h))
	assert.False(t, CheckPassword("wrong", h))
}
