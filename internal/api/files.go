package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

type analyzeRequest struct {
	Locale string `json:"locale"`
}

// upload accepts a multipart form with a "file" part or the raw export as
// the request body. ?platform= is an optional format hint.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	platform, err := chat.ParsePlatform(r.URL.Query().Get("platform"))
	if err != nil {
		writeError(w, s.log, errs.Wrap(err, errs.InvalidArgument, "unknown platform"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	raw, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errs.Wire{Code: errs.InvalidArgument, Message: "the uploaded file is too large"})
			return
		}
		writeError(w, s.log, errs.Wrap(err, errs.InvalidArgument, "could not read the upload"))
		return
	}

	j, err := s.svc.Upload(r.Context(), userID(r), platform, raw)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.svc.GetJob(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetStatus(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) clean(w http.ResponseWriter, r *http.Request) {
	platform, err := chat.ParsePlatform(r.URL.Query().Get("platform"))
	if err != nil {
		writeError(w, s.log, errs.Wrap(err, errs.InvalidArgument, "unknown platform"))
		return
	}
	st, err := s.svc.Clean(r.Context(), chi.URLParam(r, "fileID"), platform)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

func (s *Server) basicResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetBasicResult(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// analyze takes the locale from ?locale=, a JSON body or Accept-Language,
// in that order.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" && r.ContentLength != 0 {
		var req analyzeRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, s.log, errs.Wrap(err, errs.InvalidArgument, "invalid JSON body"))
			return
		}
		locale = req.Locale
	}
	if locale == "" {
		locale = firstLanguage(r.Header.Get("Accept-Language"))
	}

	st, err := s.svc.AnalyzeWithAI(r.Context(), chi.URLParam(r, "fileID"), locale)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetInsights(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Retry(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// firstLanguage returns the highest weighted tag of an Accept-Language
// header, or "".
func firstLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}
