package auth

import "golang.org/x/crypto/bcrypt"

// MaxPasswordBytes is the longest password bcrypt accepts. Longer inputs fail
// with bcrypt.ErrPasswordTooLong instead of being truncated.
const MaxPasswordBytes = 72

// HashPassword returns the bcrypt hash of password at the given cost.
// Passwords over MaxPasswordBytes return bcrypt.ErrPasswordTooLong.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword reports whether plain matches hashed. A nil error is a match.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
