package random

import (
	"crypto/rand"
	"encoding/hex"
)

// NewServerSeed returns a cryptographically random hex string of n bytes
// (2n hex characters). Used for server seeds and default client seeds.
func NewServerSeed(n int) string {
	buf := make([]byte, n)

	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a broken random
		// source must not silently produce predictable seeds.
		panic(err)
	}

	return hex.EncodeToString(buf)
}
