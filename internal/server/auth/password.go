package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrInvalidHash means a stored hash could not be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrUnsupportedHash means no verifier knows the hash scheme.
	ErrUnsupportedHash = errors.New("unsupported password hash scheme")
)

// PasswordVerifier compares a plaintext password against a stored hash.
// A mismatch is (false, nil); an error means the hash itself is unusable.
type PasswordVerifier interface {
	Verify(password, hash string) (bool, error)
}

// PasswordHasher is a PasswordVerifier that can also produce hashes.
type PasswordHasher interface {
	PasswordVerifier
	Hash(password string) (string, error)
}

// BcryptHasher hashes with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
}

// argon2id parameters, same as used for master key derivation.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
	argon2Prefix  = "$argon2id$"

	// Upper bounds for parameters read from stored hashes.
	argon2MaxMemory = 4 * argon2Memory
	argon2MaxTime   = 16
)

// Argon2idHasher stores hashes in PHC string form:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct{}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidHash
	}
	if threads == 0 || threads > 255 || time == 0 || time > argon2MaxTime || memory > argon2MaxMemory {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > 1024 {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// MultiVerifier picks a verifier by hash prefix so records hashed with
// bcrypt and argon2id can live side by side. New hashes use the preferred
// scheme.
type MultiVerifier struct {
	preferred PasswordHasher
	bcrypt    *BcryptHasher
	argon2    *Argon2idHasher
}

// NewMultiVerifier returns a verifier that hashes with bcrypt at cost and
// verifies both bcrypt and argon2id hashes.
func NewMultiVerifier(cost int) *MultiVerifier {
	b := NewBcryptHasher(cost)
	return &MultiVerifier{preferred: b, bcrypt: b, argon2: NewArgon2idHasher()}
}

func (m *MultiVerifier) Hash(password string) (string, error) {
	return m.preferred.Hash(password)
}

func (m *MultiVerifier) Verify(password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, argon2Prefix):
		return m.argon2.Verify(password, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.bcrypt.Verify(password, hash)
	default:
		return false, ErrUnsupportedHash
	}
}
