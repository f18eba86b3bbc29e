package security

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

var (
	ErrHashingFailed    = errors.New("password hashing failed")
	ErrMismatch         = errors.New("password does not match")
	ErrUnsupportedHash  = errors.New("unsupported password hash format")
	MinPasswordLen      = 6
	defaultScryptKeyLen = 64
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new password hasher using bcrypt. Compare also
// accepts werkzeug-style "pbkdf2:..." and "scrypt:..." hashes so databases
// seeded by older tooling keep working.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", errors.New("password too short")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	switch {
	case strings.HasPrefix(hashedPassword, "$2"):
		if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
			return ErrMismatch
		}
		return nil
	case strings.HasPrefix(hashedPassword, "pbkdf2:"), strings.HasPrefix(hashedPassword, "scrypt:"):
		return compareWerkzeug(hashedPassword, password)
	default:
		return ErrUnsupportedHash
	}
}

// compareWerkzeug checks "method$salt$hexdigest" hashes.
func compareWerkzeug(stored, password string) error {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return ErrUnsupportedHash
	}
	method, salt, want := parts[0], parts[1], parts[2]

	got, err := deriveWerkzeug(method, salt, password)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(got), []byte(want)) {
		return ErrMismatch
	}
	return nil
}

func deriveWerkzeug(method, salt, password string) (string, error) {
	args := strings.Split(method, ":")
	switch args[0] {
	case "pbkdf2":
		hashName := "sha256"
		iterations := 600000
		if len(args) > 1 {
			hashName = args[1]
		}
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return "", fmt.Errorf("%w: bad iteration count", ErrUnsupportedHash)
			}
			iterations = n
		}
		h, size, err := hashFunc(hashName)
		if err != nil {
			return "", err
		}
		key := pbkdf2.Key([]byte(password), []byte(salt), iterations, size, h)
		return hex.EncodeToString(key), nil
	case "scrypt":
		n, r, p := 32768, 8, 1
		if len(args) == 4 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return "", fmt.Errorf("%w: bad scrypt N", ErrUnsupportedHash)
			}
			if r, err = strconv.Atoi(args[2]); err != nil {
				return "", fmt.Errorf("%w: bad scrypt r", ErrUnsupportedHash)
			}
			if p, err = strconv.Atoi(args[3]); err != nil {
				return "", fmt.Errorf("%w: bad scrypt p", ErrUnsupportedHash)
			}
		}
		key, err := scrypt.Key([]byte(password), []byte(salt), n, r, p, defaultScryptKeyLen)
		if err != nil {
			return "", fmt.Errorf("scrypt: %w", err)
		}
		return hex.EncodeToString(key), nil
	}
	return "", ErrUnsupportedHash
}

func hashFunc(name string) (func() hash.Hash, int, error) {
	switch name {
	case "sha1":
		return sha1.New, sha1.Size, nil
	case "sha256":
		return sha256.New, sha256.Size, nil
	case "sha512":
		return sha512.New, sha512.Size, nil
	}
	return nil, 0, fmt.Errorf("%w: hash %q", ErrUnsupportedHash, name)
}
