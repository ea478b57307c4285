package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, der
}

func TestDecodePublicKey_RoundTrip(t *testing.T) {
	_, der := generateTestKey(t)
	b64 := base64.StdEncoding.EncodeToString(der)

	gotDER, fingerprint, err := DecodePublicKey(b64)
	require.NoError(t, err)
	assert.Equal(t, der, gotDER)
	assert.Equal(t, Fingerprint(der), fingerprint)

	sum := sha256.Sum256(der)
	expectedHex := fmt.Sprintf("%x", sum)
	assert.Len(t, fingerprint, 32*2+31) // 32 hex pairs + 31 colons
	assert.NotContains(t, expectedHex, ":")
	assert.Contains(t, fingerprint, ":")
}

func TestDecodePublicKey_InvalidBase64(t *testing.T) {
	_, _, err := DecodePublicKey("not-valid-base64!!!")
	assert.Error(t, err)
}

func TestDecodePublicKey_InvalidDER(t *testing.T) {
	_, _, err := DecodePublicKey(base64.StdEncoding.EncodeToString([]byte("garbage-der-bytes")))
	assert.Error(t, err)
}

func TestEncryptChallenge_RoundTrip(t *testing.T) {
	priv, der := generateTestKey(t)

	challenge := make([]byte, 32)
	_, err := rand.Read(challenge)
	require.NoError(t, err)

	encoded, err := EncryptChallenge(challenge, der)
	require.NoError(t, err)

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	plaintext, err := rsa.DecryptOAEP(sha512.New(), rand.Reader, priv, ciphertext, nil)
	require.NoError(t, err)
	assert.Equal(t, challenge, plaintext)
}

func TestGenerateSecureToken_Unique(t *testing.T) {
	a, err := GenerateSecureToken()
	require.NoError(t, err)
	b, err := GenerateSecureToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestGenerateRoomCode_Format(t *testing.T) {
	code, err := GenerateRoomCode()
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, c := range code {
		assert.Contains(t, roomCodeCharset, string(c))
	}
}

func TestSha256Hex_FixedWidthLowercase(t *testing.T) {
	h := Sha256Hex([]byte("hello world"))
	assert.Len(t, h, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", h)
}
