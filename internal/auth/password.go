package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams defines the parameters for the Argon2id hashing algorithm.
// These parameters control the computational cost of hashing a password.
type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// DefaultParams provides a good starting point for security in a web application.
// These values should be reviewed periodically and may need to be increased
// as computing power grows.
var DefaultParams = &argonParams{
	memory:      64 * 1024, // 64 MB
	iterations:  3,
	parallelism: 2,
	saltLength:  16,
	keyLength:   32,
}

// HashPassword takes a plain-text password and returns a securely hashed string.
// The returned string includes the algorithm version, parameters, salt, and hash,
// all encoded and formatted for easy storage in a single database field.
// The plaintext is never stored or logged.
func HashPassword(password string) (string, error) {
	p := DefaultParams

	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format: $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
	// This format is standardized and allows parameter upgrades in the future.
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	fullHash := fmt.Sprintf(format, argon2.Version, p.memory, p.iterations, p.parallelism, b64Salt, b64Hash)

	return fullHash, nil
}

// CheckPasswordHash compares a plain-text password with a stored hash.
// It parses the stored hash to extract the parameters and salt, re-computes
// the hash, and compares with subtle.ConstantTimeCompare so the comparison
// leaks no timing information about partial matches.
func CheckPasswordHash(password, storedHash string) bool {
	p, salt, hash, err := decodeHash(storedHash)
	if err != nil {
		// A malformed stored hash can't possibly match.
		return false
	}

	otherHash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	return subtle.ConstantTimeCompare(hash, otherHash) == 1
}

// DummyCheck burns the same amount of work as a real password verification.
// Login calls this when the username does not exist, so response timing does
// not reveal whether an account exists.
func DummyCheck(password string) {
	p := DefaultParams
	salt := make([]byte, p.saltLength)
	argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)
}

// decodeHash is a helper function to parse the formatted hash string.
func decodeHash(fullHash string) (p *argonParams, salt, hash []byte, err error) {
	vals := strings.Split(fullHash, "$")
	if len(vals) != 6 {
		return nil, nil, nil, errors.New("invalid stored hash format")
	}

	if vals[1] != "argon2id" {
		return nil, nil, nil, errors.New("unsupported hashing algorithm")
	}

	p = &argonParams{}
	_, err = fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism)
	if err != nil {
		return nil, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(vals[4])
	if err != nil {
		return nil, nil, nil, err
	}
	p.saltLength = uint32(len(salt))

	hash, err = base64.RawStdEncoding.DecodeString(vals[5])
	if err != nil {
		return nil, nil, nil, err
	}
	p.keyLength = uint32(len(hash))

	return p, salt, hash, nil
}
