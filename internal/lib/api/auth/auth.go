package auth

import (
	"errors"
	"net/http"
	"strconv"
)

var ErrNoUser = errors.New("no authenticated user")

const userHeader = "X-User-ID"

// UserID extracts the authenticated user from the request. Upstream
// terminates real authentication and forwards the identity in a header.
func UserID(r *http.Request) (int64, error) {
	raw := r.Header.Get(userHeader)
	if raw == "" {
		return 0, ErrNoUser
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoUser
	}

	return id, nil
}
