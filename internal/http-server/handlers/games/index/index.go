package index

import (
	"net/http"
	"sort"

	"github.com/go-chi/render"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/games"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
)

type Response struct {
	resp.Response
	Games []string `json:"games"`
}

// New lists every playable game id.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := games.IDs()
		sort.Strings(ids)

		render.JSON(w, r, Response{Response: resp.OK(), Games: ids})
	}
}
