package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

const headerUserID = "X-User-ID"

type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// accessLog logs one line per request after it completes.
func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			evt := log.Info()
			if cw.status >= http.StatusInternalServerError {
				evt = log.Warn()
			}
			evt.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", cw.status).
				Int("bytes", cw.bytes).
				Dur("elapsed", time.Since(start)).
				Msg("request done")
		})
	}
}

// bearerAuth requires "Authorization: Bearer <token>". An empty token
// disables the check.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errs.Wire{Code: "UNAUTHORIZED", Message: "missing or invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerUserID))
}
