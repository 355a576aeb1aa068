package delivery

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted payload markers.
const (
	MagicCBC = "3NCR0PTD"
	MagicGCM = "GCM3NCR0"
)

const kdfRounds = 100000

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfRounds, 32, sha256.New)
}

// IsEncrypted reports whether data starts with a known marker.
func IsEncrypted(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	m := string(data[:8])
	return m == MagicCBC || m == MagicGCM
}

// Encrypt seals data with AES-256-CBC under a PBKDF2 key.
// Layout: magic(8) + sha256(32) + length(8) + salt(16) + iv(16) + ciphertext.
// The hash and length cover salt, iv and ciphertext.
func Encrypt(data []byte, password string) ([]byte, error) {
	salt := make([]byte, 16)
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	padded := pkcs7Pad(data, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	body := make([]byte, 0, 32+len(ciphertext))
	body = append(body, salt...)
	body = append(body, iv...)
	body = append(body, ciphertext...)
	sum := sha256.Sum256(body)

	out := make([]byte, 0, 8+32+8+len(body))
	out = append(out, MagicCBC...)
	out = append(out, sum[:]...)
	out = binary.BigEndian.AppendUint64(out, uint64(len(body)))
	out = append(out, body...)
	return out, nil
}

// Decrypt opens a CBC or GCM sealed payload.
func Decrypt(data []byte, password string) ([]byte, error) {
	if !IsEncrypted(data) {
		return nil, fmt.Errorf("payload is not encrypted")
	}
	if string(data[:8]) == MagicGCM {
		return decryptGCM(data, password)
	}
	return decryptCBC(data, password)
}

func decryptCBC(data []byte, password string) ([]byte, error) {
	if len(data) < 8+32+8+16+16 {
		return nil, fmt.Errorf("cbc payload too short: %d bytes", len(data))
	}
	stored := data[8:40]
	length := binary.BigEndian.Uint64(data[40:48])
	body := data[48:]
	if uint64(len(body)) != length {
		return nil, fmt.Errorf("length mismatch: expected %d, got %d", length, len(body))
	}
	sum := sha256.Sum256(body)
	if !bytes.Equal(stored, sum[:]) {
		return nil, fmt.Errorf("hash verification failed")
	}

	salt, iv, ciphertext := body[:16], body[16:32], body[32:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of block size")
	}
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)
	return pkcs7Unpad(plain)
}

// Layout: magic(8) + salt(16) + nonce(12) + ciphertext+tag.
func decryptGCM(data []byte, password string) ([]byte, error) {
	if len(data) < 8+16+12+16 {
		return nil, fmt.Errorf("gcm payload too short: %d bytes", len(data))
	}
	salt, nonce, sealed := data[8:24], data[24:36], data[36:]
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm decryption failed: %w", err)
	}
	return plain, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding length: %d (wrong password?)", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding (wrong password?)")
		}
	}
	return data[:len(data)-n], nil
}
