package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashers_RoundTrip(t *testing.T) {
	hashers := map[string]Hasher{
		"plain":    PlainHasher{},
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2Hasher{},
	}
	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			stored, err := h.Hash("s3cret")
			require.NoError(t, err)
			assert.True(t, h.Verify("s3cret", stored))
			assert.False(t, h.Verify("wrong", stored))
		})
	}
}

func TestPlainHasher_StoresClearText(t *testing.T) {
	stored, err := PlainHasher{}.Hash("pw")
	require.NoError(t, err)
	assert.Equal(t, "pw", stored)
}

func TestArgon2Hasher_Format(t *testing.T) {
	stored, err := Argon2Hasher{}.Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "$argon2id$v=19$m=65536,t=1,p=4$"))

	other, err := Argon2Hasher{}.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, stored, other, "salt must differ")

	assert.False(t, Argon2Hasher{}.Verify("pw", "$argon2id$broken"))
	assert.False(t, Argon2Hasher{}.Verify("pw", "pw"))
}

func TestNewHasher(t *testing.T) {
	for _, name := range []string{"", "plain", "bcrypt", "ARGON2ID"} {
		_, err := NewHasher(name)
		assert.NoError(t, err, name)
	}
	_, err := NewHasher("md5")
	assert.Error(t, err)
}

func TestBcryptHasher_RejectsLongPassword(t *testing.T) {
	_, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordRejected)

	_, err = BcryptHasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("x", 72))
	assert.NoError(t, err)
}
