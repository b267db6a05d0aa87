package roomcode

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length of every room code
const Length = 6

// Generate returns a random 6-character uppercase alphanumeric room code
func Generate() (string, error) {
	code := make([]byte, Length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// FallbackFromTime derives a code from the clock for the rare case where
// random generation keeps colliding: the last 4 base36 digits of the unix
// millisecond timestamp plus 2 random characters.
func FallbackFromTime(now time.Time) (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}

	suffix := make([]byte, Length-len(ts))
	for i := range suffix {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		suffix[i] = codeCharset[num.Int64()]
	}

	return ts + string(suffix), nil
}

// Valid reports whether code looks like a room code
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeCharset, rune(code[i])) {
			return false
		}
	}
	return true
}

// Normalize upper-cases a user-supplied room code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TempPassword generates a random temporary password for a new teacher
// account. It is shown once to the administrator and stored only hashed.
func TempPassword(length int) (string, error) {
	password := make([]byte, length)
	for i := range password {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", err
		}
		password[i] = passwordCharset[num.Int64()]
	}
	return string(password), nil
}
