package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its status and wire payload. Server-side
// failures are logged with the cause, which never reaches the client.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errs.WireFrom(err))
}
