package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/frahmantamala/store-auth/internal"
	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher produces and checks Argon2id hashes in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
type PasswordHasher struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

func NewPasswordHasher(cfg internal.Argon2Config) *PasswordHasher {
	h := &PasswordHasher{
		memory:  cfg.Memory,
		time:    cfg.Iterations,
		threads: cfg.Parallelism,
		saltLen: cfg.SaltLength,
		keyLen:  cfg.KeyLength,
	}
	if h.memory == 0 {
		h.memory = 64 * 1024
	}
	if h.time == 0 {
		h.time = 3
	}
	if h.threads == 0 {
		h.threads = 1
	}
	if h.saltLen == 0 {
		h.saltLen = 16
	}
	if h.keyLen == 0 {
		h.keyLen = 32
	}
	return h
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks password against an encoded hash using the parameters
// recorded in the hash itself.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	salt, hash, params, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// Bounds accepted when reading a stored hash. Values outside them would
// panic inside argon2 or stall the request.
const (
	maxArgonMemory  = 1 << 20 // KiB
	maxArgonTime    = 64
	maxArgonSaltLen = 256
	maxArgonKeyLen  = 1024
)

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

func decodePHC(encoded string) (salt, hash []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, params, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, params, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, ErrMalformedHash
	}
	if params.time == 0 || params.time > maxArgonTime ||
		params.threads == 0 ||
		params.memory == 0 || params.memory > maxArgonMemory {
		return nil, nil, params, ErrMalformedHash
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(salt) == 0 || len(salt) > maxArgonSaltLen {
		return nil, nil, params, ErrMalformedHash
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(hash) == 0 || len(hash) > maxArgonKeyLen {
		return nil, nil, params, ErrMalformedHash
	}

	return salt, hash, params, nil
}

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "@$!%*?&"
)

// GeneratePassword returns a random password of length n (minimum 4) with
// at least one upper, lower, digit and special character.
func GeneratePassword(n int) (string, error) {
	if n < 4 {
		n = 4
	}
	all := upperChars + lowerChars + digitChars + specialChars

	buf := make([]byte, 0, n)
	for _, set := range []string{upperChars, lowerChars, digitChars, specialChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < n {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

func randomChar(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generating password: %w", err)
	}
	return set[idx.Int64()], nil
}
