// Package cryptox derives password verifiers with argon2id.
package cryptox

import (
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	KeySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var ErrEmptyPassword = errors.New("empty password")

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// HashPassword returns a fresh random salt and the verifier derived from it.
func HashPassword(password string) (salt, verifier []byte, err error) {
	if password == "" {
		return nil, nil, ErrEmptyPassword
	}
	salt = common.GenerateRandByteArray(SaltSize)
	pw := []byte(password)
	defer common.WipeByteArray(pw)
	return salt, DeriveKey(pw, salt), nil
}

// VerifyPassword reports whether password matches verifier under salt.
// The comparison runs in constant time.
func VerifyPassword(password string, salt, verifier []byte) bool {
	pw := []byte(password)
	defer common.WipeByteArray(pw)
	candidate := DeriveKey(pw, salt)
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}
