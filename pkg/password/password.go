package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a bcrypt hash of the given plaintext password
func Hash(pass string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify reports whether the plaintext password matches the stored hash
func Verify(pass, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
	return err == nil
}
