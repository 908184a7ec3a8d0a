package redis

import "fmt"

const (
	placeLockFmt   = "casino:place:lock:%d:%s"
	placeResultFmt = "casino:place:result:%d:%s"
)

// PlaceLockKey scopes a place-bet idempotency lock to one user and key.
func PlaceLockKey(userID int64, idempotencyKey string) string {
	return fmt.Sprintf(placeLockFmt, userID, idempotencyKey)
}

// PlaceResultKey holds the serialized response served to retries of the
// same idempotency key.
func PlaceResultKey(userID int64, idempotencyKey string) string {
	return fmt.Sprintf(placeResultFmt, userID, idempotencyKey)
}
