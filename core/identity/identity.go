// Package identity implements the crypto primitives the authentication
// substrate rests on: RSA public-key decoding and fingerprinting,
// cryptographically-strong token and room-code generation, and
// RSA-OAEP challenge encryption, wrapping stdlib crypto/rsa directly rather
// than reaching for a third-party RSA package.
package identity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
)

const (
	roomCodeLength  = 8
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secureTokenSize = 32
)

// DecodePublicKey base64-decodes a DER-encoded RSA SubjectPublicKeyInfo,
// validates it parses as an RSA key, and returns the raw DER bytes
// alongside their colon-separated lowercase-hex SHA-256 fingerprint.
func DecodePublicKey(publicKeyB64 string) (der []byte, fingerprint string, err error) {
	der, err = base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, "", apperr.InvalidPublicKey(err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, "", apperr.InvalidPublicKey(err)
	}
	if _, ok := pub.(*rsa.PublicKey); !ok {
		return nil, "", apperr.InvalidPublicKey(fmt.Errorf("key is not RSA"))
	}

	return der, Fingerprint(der), nil
}

// Fingerprint renders the SHA-256 of DER-encoded key bytes as 32 lowercase
// hex pairs joined by ':'.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	hexStr := hex.EncodeToString(sum[:])

	out := make([]byte, 0, len(hexStr)+len(hexStr)/2-1)
	for i := 0; i < len(hexStr); i += 2 {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexStr[i], hexStr[i+1])
	}
	return string(out)
}

// Sha256Hex is the plain (no-colon) 64-char lowercase-hex digest used for
// seed/commitment comparisons.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GenerateSecureToken produces 32 cryptographically random bytes,
// base64-standard-encoded.
func GenerateSecureToken() (string, error) {
	buf := make([]byte, secureTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", apperr.TokenGenerationFailed(err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// EncryptChallenge RSA-OAEP(SHA-512)-encrypts the raw challenge bytes with
// the member's DER-encoded RSA public key and returns the base64 ciphertext.
func EncryptChallenge(challenge []byte, der []byte) (string, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return "", apperr.InvalidPublicKey(err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return "", apperr.InvalidPublicKey(fmt.Errorf("key is not RSA"))
	}

	ciphertext, err := rsa.EncryptOAEP(crypto.SHA512.New(), rand.Reader, rsaPub, challenge, nil)
	if err != nil {
		return "", apperr.TokenEncryptionFailed(err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// GenerateRoomCode draws roomCodeLength characters uniformly, with
// replacement, from roomCodeCharset using the cryptographic RNG. Collisions
// against existing codes are handled by the repository (unique constraint
// + retry).
func GenerateRoomCode() (string, error) {
	// Bytes at or above the largest multiple of the charset size are
	// rejected so that the modulo below does not favour any character.
	limit := 256 - 256%len(roomCodeCharset)
	buf := make([]byte, 1)
	out := make([]byte, 0, roomCodeLength)
	for len(out) < roomCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", apperr.TokenGenerationFailed(err)
		}
		if int(buf[0]) >= limit {
			continue
		}
		out = append(out, roomCodeCharset[int(buf[0])%len(roomCodeCharset)])
	}
	return string(out), nil
}
