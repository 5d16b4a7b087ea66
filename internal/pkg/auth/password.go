package auth

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the default hashing cost for stored credentials
const BcryptCost = 12

// Default password digits are drawn from [DefaultPasswordMin, DefaultPasswordMax]
const (
	DefaultPasswordMin = 1000
	DefaultPasswordMax = 9999
)

// Hasher hashes and checks credentials with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside bcrypt's range fall back to BcryptCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = BcryptCost
	}
	return &Hasher{cost: cost}
}

// HashPassword hashes a plain-text password
func (h *Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword reports whether password matches the stored hash
func (h *Hasher) CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// DigitSource returns a number in [DefaultPasswordMin, DefaultPasswordMax].
type DigitSource func() int

// RandomDigits is the production DigitSource.
func RandomDigits() int {
	return DefaultPasswordMin + rand.IntN(DefaultPasswordMax-DefaultPasswordMin+1)
}

// DefaultPassword builds the placeholder credential handed to new accounts:
// the first name followed by four digits.
func DefaultPassword(firstName string, digits DigitSource) string {
	if digits == nil {
		digits = RandomDigits
	}
	return fmt.Sprintf("%s%d", firstName, digits())
}
