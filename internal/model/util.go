package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// randomHex returns n random bytes hex-encoded (2n characters).
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// NewUserID generates an external id for users and brands: the current
// record count plus one, a dash, and 32 random hex characters. The
// count prefix is presentational; uniqueness rests on the random
// suffix.
func NewUserID(count int64) string {
	return fmt.Sprintf("%d-%s", count+1, randomHex(16))
}

// NewEntityID generates an external id for tenant entities: count plus
// one, a dash, and 24 random hex characters.
func NewEntityID(count int64) string {
	return fmt.Sprintf("%d-%s", count+1, randomHex(12))
}

// NewBareID generates a bare 24-character random hex id, used by plans
// and suppliers.
func NewBareID() string {
	return randomHex(12)
}
