package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordVerification is the outcome of comparing a secret against a stored hash
type PasswordVerification int

const (
	PasswordVerificationFailed PasswordVerification = iota
	PasswordVerificationSuccess
	PasswordVerificationSuccessRehashNeeded
)

func (v PasswordVerification) String() string {
	switch v {
	case PasswordVerificationSuccess:
		return "success"
	case PasswordVerificationSuccessRehashNeeded:
		return "success_rehash_needed"
	default:
		return "failed"
	}
}

// Ok reports whether the secret matched
func (v PasswordVerification) Ok() bool {
	return v == PasswordVerificationSuccess || v == PasswordVerificationSuccessRehashNeeded
}

// BcryptHasher implements PasswordHasher with a configurable cost
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or the package default when
// cost is outside the bcrypt range
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash will generate a password hash
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong.Clone()
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong.Clone()
	}
	return string(out), err
}

// Verify compares plaintext with hash. Callers must not pass an empty hash,
// see ErrNoCredentialSet.
func (h *BcryptHasher) Verify(hash, plaintext string) PasswordVerification {
	if hash == "" {
		return PasswordVerificationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return PasswordVerificationFailed
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err == nil && cost < h.cost {
		return PasswordVerificationSuccessRehashNeeded
	}

	return PasswordVerificationSuccess
}

// HashPassword will generate a password hash with the default cost
func HashPassword(password string) (string, error) {
	return NewBcryptHasher(0).Hash(password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// RandomPasswordHash is a hash of a random secret, used to seed accounts
// that must set a password through another channel
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
