package server

import (
	"net/http"

	"github.com/eggsplain/eggsplain-front/internal/health"
	jsonwriter "github.com/eggsplain/eggsplain-front/internal/json"
)

// NewHealthHandler serves the readiness probe. Sub-check timeouts surface
// in the body, never as a handler failure.
func NewHealthHandler(prober *health.Prober) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := prober.Probe(r.Context())

		code := http.StatusOK
		if status.Status == health.StatusError {
			code = http.StatusServiceUnavailable
		}
		jsonwriter.WriteResponse(w, code, status)
	}
}
