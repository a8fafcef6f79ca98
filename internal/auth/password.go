package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is lowered by tests.
var hashCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password exceeds %d bytes: %w", MAX_PASSWORD_LENGTH, err)
		}
		return "", fmt.Errorf("failed to hash plain password to hashed password: %w", err)
	}
	return string(hashedPassword), nil
}

// ComparePasswords reports whether plainPwd matches the stored hash. Malformed
// hashes never match.
func ComparePasswords(hashedPwd string, plainPwd string) bool {
	if hashedPwd == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPwd), []byte(plainPwd)) == nil
}
