package delivery

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	for _, size := range []int{0, 1, 15, 16, 17, 4096} {
		plain := bytes.Repeat([]byte{'x'}, size)
		sealed, err := Encrypt(plain, "hunter2")
		require.NoError(t, err)
		assert.True(t, IsEncrypted(sealed))
		assert.Equal(t, MagicCBC, string(sealed[:8]))

		got, err := Decrypt(sealed, "hunter2")
		require.NoError(t, err)
		assert.Equal(t, plain, got, "size %d", size)
	}
}

func TestDecryptTampered(t *testing.T) {
	sealed, err := Encrypt([]byte("payload"), "pw")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = Decrypt(sealed, "pw")
	assert.ErrorContains(t, err, "hash verification failed")
}

func TestDecryptPlain(t *testing.T) {
	assert.False(t, IsEncrypted([]byte("%PDF-1.7")))
	_, err := Decrypt([]byte("%PDF-1.7 plain"), "pw")
	assert.Error(t, err)
}
