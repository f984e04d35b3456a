package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost pins the work factor so hashes stay comparable across deploys.
const bcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plain password using bcrypt. Both real passwords and
// the placeholder credentials minted for pending invites go through here.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
