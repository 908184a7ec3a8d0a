package model

import "time"

// FairnessSeed is the commit side of the commit/reveal scheme. The hash is
// published before any nonce under the seed is consumed; the plaintext
// stays secret until the seed has been rotated out.
type FairnessSeed struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	ServerSeed     string     `json:"-"`
	ServerSeedHash string     `json:"server_seed_hash"`
	Nonce          int64      `json:"nonce"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	RevealedAt     *time.Time `json:"revealed_at,omitempty"`
}
