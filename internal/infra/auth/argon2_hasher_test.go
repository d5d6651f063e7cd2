package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"signup/config"
	domainerrors "signup/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParams keeps argon2id cheap enough for unit tests.
var testParams = Argon2Params{
	Time:        1,
	Memory:      64,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func newTestHasher(t *testing.T) *argon2idHasher {
	t.Helper()

	h, err := NewArgon2idHasher(testParams)
	require.NoError(t, err)

	return h.(*argon2idHasher)
}

func TestArgon2idHasher_HashAndVerify(t *testing.T) {
	hasher := newTestHasher(t)
	ctx := context.Background()

	passwords := []string{
		"StrongPass123!",
		"Pässwörd#2024",
		"日本語のパスワード1A!",
		"",
	}

	for _, password := range passwords {
		hash, err := hasher.Hash(ctx, password)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)

		ok, err := hasher.Verify(hash, password)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", password)

		ok, err = hasher.Verify(hash, password+"x")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestArgon2idHasher_SaltsDiffer(t *testing.T) {
	hasher := newTestHasher(t)

	first, err := hasher.Hash(context.Background(), "StrongPass123!")
	require.NoError(t, err)
	second, err := hasher.Hash(context.Background(), "StrongPass123!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, hash := range []string{first, second} {
		ok, err := hasher.Verify(hash, "StrongPass123!")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestArgon2idHasher_VerifyUsesEmbeddedParameters(t *testing.T) {
	old := newTestHasher(t)
	hash, err := old.Hash(context.Background(), "StrongPass123!")
	require.NoError(t, err)

	stronger := testParams
	stronger.Time = 2
	stronger.Memory = 128
	current, err := NewArgon2idHasher(stronger)
	require.NoError(t, err)

	ok, err := current.Verify(hash, "StrongPass123!")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, current.NeedsRehash(hash))
	assert.False(t, old.NeedsRehash(hash))
}

func TestArgon2idHasher_VerifyMalformed(t *testing.T) {
	hasher := newTestHasher(t)
	valid, err := hasher.Hash(context.Background(), "StrongPass123!")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "not phc", encoded: "plaintext"},
		{name: "bcrypt", encoded: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{name: "argon2i", encoded: strings.Replace(valid, "$argon2id$", "$argon2i$", 1)},
		{name: "wrong version", encoded: strings.Replace(valid, "v=19", "v=16", 1)},
		{name: "bad version", encoded: strings.Replace(valid, "v=19", "version", 1)},
		{name: "bad params", encoded: strings.Replace(valid, "m=64,t=1,p=1", "m=x,t=1,p=1", 1)},
		{name: "zero threads", encoded: strings.Replace(valid, "p=1", "p=0", 1)},
		{name: "too many threads", encoded: strings.Replace(valid, "m=64,t=1,p=1", "m=4096,t=1,p=256", 1)},
		{name: "zero time", encoded: strings.Replace(valid, "t=1", "t=0", 1)},
		{name: "bad salt", encoded: "$" + strings.Join([]string{parts[1], parts[2], parts[3], "!!!", parts[5]}, "$")},
		{name: "empty key", encoded: "$" + strings.Join([]string{parts[1], parts[2], parts[3], parts[4], ""}, "$")},
		{name: "extra segment", encoded: valid + "$extra"},
		{name: "trailing text after version", encoded: strings.Replace(valid, "v=19", "v=19junk", 1)},
		{name: "trailing text after threads", encoded: strings.Replace(valid, "p=1", "p=1GARBAGE", 1)},
		{name: "missing cost", encoded: strings.Replace(valid, "m=64,t=1,p=1", "m=64,t=1", 1)},
		{name: "extra cost", encoded: strings.Replace(valid, "m=64,t=1,p=1", "m=64,t=1,p=1,x=2", 1)},
		{name: "reordered costs", encoded: strings.Replace(valid, "m=64,t=1,p=1", "t=1,m=64,p=1", 1)},
		{name: "signed cost", encoded: strings.Replace(valid, "t=1", "t=+1", 1)},
		{name: "memory over ceiling", encoded: strings.Replace(valid, "m=64", "m=4294967295", 1)},
		{name: "time over ceiling", encoded: strings.Replace(valid, "t=1", "t=4294967295", 1)},
		{name: "too long", encoded: valid + strings.Repeat("A", MaxEncodedLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify(tt.encoded, "StrongPass123!")
			assert.False(t, ok)
			assert.True(t, errors.Is(err, domainerrors.ErrMalformedHash), "got %v", err)
			assert.True(t, hasher.NeedsRehash(tt.encoded))
		})
	}
}

func TestArgon2idHasher_HashFailures(t *testing.T) {
	t.Run("entropy failure", func(t *testing.T) {
		hasher := newTestHasher(t)
		hasher.rand = failingReader{}

		hash, err := hasher.Hash(context.Background(), "StrongPass123!")
		assert.Empty(t, hash)
		assert.True(t, errors.Is(err, domainerrors.ErrHashingUnavailable))
	})

	t.Run("canceled context", func(t *testing.T) {
		hasher := newTestHasher(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		hash, err := hasher.Hash(ctx, "StrongPass123!")
		assert.Empty(t, hash)
		assert.True(t, errors.Is(err, domainerrors.ErrHashingUnavailable))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestArgon2Params_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Argon2Params)
		wantErr string
	}{
		{name: "valid", mutate: func(*Argon2Params) {}},
		{name: "zero time", mutate: func(p *Argon2Params) { p.Time = 0 }, wantErr: "time cost"},
		{name: "zero parallelism", mutate: func(p *Argon2Params) { p.Parallelism = 0 }, wantErr: "parallelism"},
		{name: "memory below 8p", mutate: func(p *Argon2Params) { p.Parallelism = 16; p.Memory = 64 }, wantErr: "memory cost"},
		{name: "short salt", mutate: func(p *Argon2Params) { p.SaltLength = 4 }, wantErr: "salt length"},
		{name: "short key", mutate: func(p *Argon2Params) { p.KeyLength = 8 }, wantErr: "key length"},
		{name: "time over ceiling", mutate: func(p *Argon2Params) { p.Time = maxTimeCost + 1 }, wantErr: "time cost"},
		{name: "memory over ceiling", mutate: func(p *Argon2Params) { p.Memory = maxMemoryCost + 1 }, wantErr: "memory cost"},
		{name: "key does not fit column", mutate: func(p *Argon2Params) { p.KeyLength = 256 }, wantErr: "encoded hash"},
		{name: "salt does not fit column", mutate: func(p *Argon2Params) { p.SaltLength = 1 << 20 }, wantErr: "encoded hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams
			tt.mutate(&params)

			_, err := NewArgon2idHasher(params)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestArgon2Params_EncodedLengthMatchesHash(t *testing.T) {
	params := Argon2Params{
		Time:        maxTimeCost,
		Memory:      maxMemoryCost,
		Parallelism: 255,
		SaltLength:  32,
		KeyLength:   64,
	}
	require.NoError(t, params.Validate())

	salt := make([]byte, params.SaltLength)
	key := make([]byte, params.KeyLength)
	encoded := encodeHash(params, salt, key)

	assert.Equal(t, len(encoded), params.encodedLength())
	assert.LessOrEqual(t, len(encoded), MaxEncodedLength)
}

func TestArgon2Params_DefaultsFitStorage(t *testing.T) {
	params := Argon2Params{
		Time:        config.DefaultArgon2TimeCost,
		Memory:      config.DefaultArgon2MemoryCost,
		Parallelism: config.DefaultArgon2Parallelism,
		SaltLength:  config.DefaultArgon2SaltLength,
		KeyLength:   config.DefaultArgon2KeyLength,
	}

	assert.NoError(t, params.Validate())
}

func TestNewPasswordHasher(t *testing.T) {
	cfg := &config.Config{
		Argon2: &config.Argon2Config{
			TimeCost:    1,
			MemoryCost:  64,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		Hashing: &config.HashingConfig{Workers: 2},
	}

	hasher, err := NewPasswordHasher(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.IsType(t, &boundedHasher{}, hasher)

	hash, err := hasher.Hash(context.Background(), "StrongPass123!")
	require.NoError(t, err)
	ok, err := hasher.Verify(hash, "StrongPass123!")
	require.NoError(t, err)
	assert.True(t, ok)

	cfg.Argon2.SaltLength = 1
	_, err = NewPasswordHasher(cfg, slog.Default())
	assert.ErrorContains(t, err, "salt length")

	_, err = NewPasswordHasher(&config.Config{}, slog.Default())
	assert.Error(t, err)
}
