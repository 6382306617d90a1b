package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESFieldTransforms(t *testing.T) {
	transforms, err := NewAESFieldTransforms([]byte("0123456789abcdef"), "phoneNumber")
	require.NoError(t, err)

	first, err := transforms.encode("phoneNumber", "555-0100")
	require.NoError(t, err)
	second, err := transforms.encode("phoneNumber", "555-0100")
	require.NoError(t, err)
	assert.NotEqual(t, "555-0100", first)
	assert.NotEqual(t, first, second, "each encryption uses a fresh nonce")

	plain, err := transforms.decode("phoneNumber", first)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", plain)

	untouched, err := transforms.encode("email", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", untouched)

	empty, err := transforms.encode("phoneNumber", "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAESFieldTransforms_Errors(t *testing.T) {
	_, err := NewAESFieldTransforms([]byte("short"), "phoneNumber")
	assert.Error(t, err)

	none, err := NewAESFieldTransforms(nil, "phoneNumber")
	require.NoError(t, err)
	assert.Empty(t, none)

	transforms, err := NewAESFieldTransforms([]byte("0123456789abcdef"), "phoneNumber")
	require.NoError(t, err)
	_, err = transforms.decode("phoneNumber", "not-base64!")
	assert.Error(t, err)
	_, err = transforms.decode("phoneNumber", "YQ==")
	assert.Error(t, err)

	other, _ := NewAESFieldTransforms([]byte("fedcba9876543210"), "phoneNumber")
	sealed, _ := other.encode("phoneNumber", "555-0100")
	_, err = transforms.decode("phoneNumber", sealed)
	assert.Error(t, err, "wrong key must not decrypt")
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", rebindDollar("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1", rebindDollar("SELECT 1"))
}
