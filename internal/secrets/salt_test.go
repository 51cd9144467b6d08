package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Keys produced by packages protected with earlier releases.
func TestDeriveKey_KnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"short", "k1", "985dcb225b7ab97de7cf50db19b9e3ae"},
		{"short other", "k2", "4d716fc915283d4baa4951b41167842e"},
		{"single char", "a", "6f55174b047739e148ac94c605b1aad7"},
		{"legacy default", "absdQWER999", "b665274634bd524f3516839e17d3c41e"},
		{"punctuation", "ft*xx9527", "a0ee9880f5a32c1c024b752a4fee4b4b"},
		{"non-ascii with surrogate pair", "密钥🔑", "456e6e740cfb7b806595886a75f4af82"},
		{"just over threshold", strings.Repeat("x", 129), "91eec48810c87fbbe1f38cac9c942837"},
		{"long", strings.Repeat("x", 300), "cf30c47c237638b0936b51d228b8ed0f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveKey(tt.secret))
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	for _, secret := range []string{"k1", "correct horse battery staple", strings.Repeat("ab", 90)} {
		first := DeriveKey(secret)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, DeriveKey(secret))
		}
		assert.Len(t, first, 32)
	}
}

func TestDeriveKey_DistinctSecrets(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 200; i++ {
		secret := "secret-" + strings.Repeat("z", i%7) + string(rune('a'+i%26)) + strings.Repeat("q", i/26)
		key := DeriveKey(secret)
		if prev, ok := seen[key]; ok && prev != secret {
			t.Fatalf("secrets %q and %q derived the same key", prev, secret)
		}
		seen[key] = secret
	}
}

func TestDeriveKey_EmptySecretTerminates(t *testing.T) {
	// MD5 of the empty string; the mask for length zero is zero.
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", DeriveKey(""))
}
