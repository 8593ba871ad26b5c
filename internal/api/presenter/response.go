package presenter

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/customtoken/internal/apierror"
)

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

// Error writes a normalized error using its status as the HTTP status code.
func Error(w http.ResponseWriter, r *http.Request, err *apierror.Error) {
	JSON(w, r, err, err.Status)
}
