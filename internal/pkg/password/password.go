package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const algorithmID = "argon2id"

var ErrMalformedHash = errors.New("malformed password hash")

// Params tunes the argon2id KDF.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the RFC 9106 second recommended option, scaled down
// for request-path hashing.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        1,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes and verifies passwords. It holds no mutable state and is safe
// for concurrent use.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	if p.Memory == 0 {
		p = DefaultParams
	}
	return &Hasher{params: p}
}

// Hash returns a PHC-encoded argon2id hash with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. A malformed hash never
// matches. bcrypt hashes are accepted for accounts created before argon2id.
func (h *Hasher) Verify(password, encoded string) bool {
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}

	p, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// NeedsRehash reports whether encoded was produced by bcrypt or with weaker
// parameters than the hasher's current ones.
func (h *Hasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	p, _, key, err := decode(encoded)
	if err != nil {
		return true
	}
	return p.Memory < h.params.Memory ||
		p.Time < h.params.Time ||
		p.Parallelism < h.params.Parallelism ||
		uint32(len(key)) != h.params.KeyLength
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
