package fair

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

// Draw derives the uniform [0,1) value that is the sole source of
// randomness for every game: HMAC-SHA256 keyed by the server seed over
// "clientSeed:nonce", first 4 bytes as a big-endian uint32, divided by
// 0xFFFFFFFF. Bit-for-bit reproducibility of this function is the entire
// basis of the provably-fair scheme, so it must never change shape.
func Draw(serverSeed, clientSeed string, nonce int64) float64 {
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(clientSeed + ":" + strconv.FormatInt(nonce, 10)))
	sum := h.Sum(nil)

	v := binary.BigEndian.Uint32(sum[:4])

	return float64(v) / float64(0xFFFFFFFF)
}

// HashSeed returns the published commitment for a server seed.
func HashSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))

	return hex.EncodeToString(sum[:])
}
