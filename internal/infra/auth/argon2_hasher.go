// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"signup/config"
	domainerrors "signup/internal/domain/errors"
	"signup/internal/domain/service"
	"signup/internal/errors"

	"golang.org/x/crypto/argon2"
)

const (
	minSaltLength = 8
	minKeyLength  = 16
	maxKeyLength  = 1 << 10
	maxTimeCost   = 64
	maxMemoryCost = 1 << 20 // KiB

	// MaxEncodedLength is the width of users.password_hash.
	MaxEncodedLength = 255
)

// Argon2Params are the tunable argon2id costs. Memory is in KiB.
type Argon2Params struct {
	Time        uint32
	Memory      uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// ParamsFromConfig reads the argon2 section of the service config.
func ParamsFromConfig(cfg *config.Argon2Config) Argon2Params {
	return Argon2Params{
		Time:        cfg.TimeCost,
		Memory:      cfg.MemoryCost,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	}
}

// Validate rejects parameters argon2id cannot run with or that are too weak to be useful.
func (p Argon2Params) Validate() error {
	switch {
	case p.Time < 1:
		return errors.New("argon2: time cost must be at least 1")
	case p.Parallelism < 1:
		return errors.New("argon2: parallelism must be at least 1")
	case p.Time > maxTimeCost:
		return errors.Errorf("argon2: time cost must be at most %d", maxTimeCost)
	case p.Memory < 8*uint32(p.Parallelism):
		return errors.Errorf("argon2: memory cost must be at least %d KiB for parallelism %d", 8*uint32(p.Parallelism), p.Parallelism)
	case p.Memory > maxMemoryCost:
		return errors.Errorf("argon2: memory cost must be at most %d KiB", maxMemoryCost)
	case p.SaltLength < minSaltLength:
		return errors.Errorf("argon2: salt length must be at least %d bytes", minSaltLength)
	case p.KeyLength < minKeyLength || p.KeyLength > maxKeyLength:
		return errors.Errorf("argon2: key length must be between %d and %d bytes", minKeyLength, maxKeyLength)
	}

	if n := p.encodedLength(); n > MaxEncodedLength {
		return errors.Errorf("argon2: encoded hash would be %d characters, at most %d fit in storage", n, MaxEncodedLength)
	}

	return nil
}

// encodedLength is the length of every hash produced with p.
func (p Argon2Params) encodedLength() int {
	return len(encodeHash(p, nil, nil)) +
		base64.RawStdEncoding.EncodedLen(int(p.SaltLength)) +
		base64.RawStdEncoding.EncodedLen(int(p.KeyLength))
}

// argon2idHasher is a concrete implementation of the PasswordHasher interface using argon2id.
// Its parameters are fixed at construction.
type argon2idHasher struct {
	params Argon2Params
	rand   io.Reader
}

// NewArgon2idHasher is the constructor for argon2idHasher.
func NewArgon2idHasher(params Argon2Params) (service.PasswordHasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &argon2idHasher{params: params, rand: rand.Reader}, nil
}

// Hash derives an argon2id key with a fresh random salt and encodes it in PHC format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func (h *argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domainerrors.ErrHashingUnavailable.Wrap(err)
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", domainerrors.ErrHashingUnavailable.Wrap(errors.Wrap(err, "read salt"))
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return encodeHash(h.params, salt, key), nil
}

// Verify re-derives the key with the parameters embedded in encoded and compares in constant time.
func (h *argon2idHasher) Verify(encoded, password string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsRehash reports whether encoded differs from the current parameters.
// Corrupt hashes always need a rehash.
func (h *argon2idHasher) NeedsRehash(encoded string) bool {
	params, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}

	return params != h.params
}

func encodeHash(p Argon2Params, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// decodeHash parses a PHC-encoded argon2id hash. Every segment must be consumed
// exactly and the costs must be within the limits Validate allows, so a corrupt
// row cannot make Verify allocate or spin unboundedly. Every failure matches
// domainerrors.ErrMalformedHash.
func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	if len(encoded) > MaxEncodedLength {
		return p, nil, nil, malformed("hash longer than %d characters", MaxEncodedLength)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, malformed("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return p, nil, nil, malformed("unsupported hash algorithm: %q", parts[1])
	}

	version, err := parseField(parts[2], "v")
	if err != nil {
		return p, nil, nil, malformed("invalid version segment")
	}
	if version != argon2.Version {
		return p, nil, nil, malformed("unsupported argon2 version: %d", version)
	}

	costs := strings.Split(parts[3], ",")
	if len(costs) != 3 {
		return p, nil, nil, malformed("invalid parameter segment")
	}
	memory, errM := parseField(costs[0], "m")
	time, errT := parseField(costs[1], "t")
	threads, errP := parseField(costs[2], "p")
	if errM != nil || errT != nil || errP != nil {
		return p, nil, nil, malformed("invalid parameter segment")
	}
	if threads < 1 || threads > 255 {
		return p, nil, nil, malformed("threads value %d out of range", threads)
	}
	if time < 1 || time > maxTimeCost || memory < 8*threads || memory > maxMemoryCost {
		return p, nil, nil, malformed("cost parameters out of range")
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, malformed("invalid salt encoding")
	}

	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLength {
		return p, nil, nil, malformed("invalid key encoding")
	}

	p = Argon2Params{
		Time:        time,
		Memory:      memory,
		Parallelism: uint8(threads),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}

	return p, salt, key, nil
}

// parseField reads "<name>=<decimal>" and rejects anything after the digits.
func parseField(segment, name string) (uint32, error) {
	value, ok := strings.CutPrefix(segment, name+"=")
	if !ok {
		return 0, errors.Errorf("missing %s=", name)
	}

	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", name)
	}

	return uint32(n), nil
}

func malformed(format string, args ...any) error {
	return errors.Wrapf(domainerrors.ErrMalformedHash, format, args...)
}
