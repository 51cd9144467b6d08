package secrets

import (
	"crypto/md5"
	"encoding/hex"
	"unicode/utf16"
)

const (
	saltMaxLength = 128
	saltMaxDepth  = 3
)

// DeriveKey derives the 32-character hex key for secret.
//
// Lengths and slices are measured in UTF-16 code units and the masked
// bytes are the UTF-8 encoding of the salted string, matching keys created
// by earlier releases for any input, including non-ASCII secrets.
func DeriveKey(secret string) string {
	return saltKey(utf16.Encode([]rune(secret)), 0)
}

func saltKey(key []uint16, depth int) string {
	n := len(key)
	salted := make([]uint16, 0, n+n/6+n-n/4)
	salted = append(salted, key[:n/6]...)
	salted = append(salted, key...)
	salted = append(salted, key[n/4:]...)
	key = salted

	// An empty key never grows, so it would recurse forever.
	if len(key) > 0 && (len(key) <= saltMaxLength || (len(key)%2 == 0 && depth <= saltMaxDepth)) {
		key = utf16.Encode([]rune(saltKey(key, depth+1)))
	}

	buf := []byte(string(utf16.Decode(key)))
	mask := byte(((len(key)*(955%9527) + 996007) >> 20) & 0xFF)
	for i := range buf {
		buf[i] ^= mask
	}

	sum := md5.Sum(buf)
	return hex.EncodeToString(sum[:])
}
