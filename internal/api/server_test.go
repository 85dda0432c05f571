package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/insight"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/memstore"
	"github.com/cheercheung/chatrecap-sub001/internal/processor"
)

type silentGen struct{}

func (silentGen) Generate(ctx context.Context, _, _ string) (string, error) {
	return "no json here", nil
}

func newTestServer(t *testing.T, token string, maxUpload int64) (*Server, *processor.Processor) {
	t.Helper()
	proc := processor.New(processor.Deps{
		Jobs:      memstore.NewJobs(),
		Artifacts: memstore.NewArtifacts(),
		Ledger:    memstore.NewLedger(map[string]int{"u1": 0}),
		Generator: silentGen{},
		Prompts:   insight.NewBuilder(nil, "", "en", zerolog.Nop()),
	}, processor.Options{CreditCost: 1, JobTimeout: 5 * time.Second}, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = proc.Shutdown(ctx)
	})
	srv := NewServer(proc, Options{Port: 8760, APIToken: token, MaxUploadBytes: maxUpload}, zerolog.Nop())
	return srv, proc
}

func export(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		sender := "Alice"
		if i%2 == 1 {
			sender = "Bob"
		}
		fmt.Fprintf(&b, "[05/02/2024, 10:%02d:00] %s: hello %d\n", i, sender, i)
	}
	return b.String()
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "", 0)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	proc := processor.New(processor.Deps{Jobs: memstore.NewJobs(), Artifacts: memstore.NewArtifacts()}, processor.Options{}, zerolog.Nop())
	srv := NewServer(proc, Options{Health: map[string]HealthCheck{
		"database": func(context.Context) bool { return false },
	}}, zerolog.Nop())

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "", 0)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestUploadCleanAndResult(t *testing.T) {
	srv, proc := newTestServer(t, "", 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/?platform=whatsapp", strings.NewReader(export(6)))
	req.Header.Set(headerUserID, "u1")
	w := do(t, srv, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	j := decode[job.FileJob](t, w)
	if j.Status != job.StatusUploaded || j.UserID != "u1" {
		t.Fatalf("unexpected job %+v", j)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+j.ID+"/result", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 before cleaning, got %d", w.Code)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/"+j.ID+"/clean", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := proc.WaitForStatus(context.Background(), j.ID, 5*time.Millisecond, 400, job.StatusCompletedBasic); err != nil {
		t.Fatalf("clean did not finish: %v", err)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+j.ID+"/status", nil))
	st := decode[job.ProcessingStatus](t, w)
	if st.Status != job.StatusCompletedBasic || st.CleaningProgress != 100 {
		t.Errorf("unexpected status %+v", st)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+j.ID+"/result", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decode[processor.BasicResult](t, w)
	if len(res.Messages) != 6 || res.Analysis == nil || res.Analysis.Overview.TotalMessages != 6 {
		t.Errorf("unexpected result %+v", res)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/"+j.ID+"/clean", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on second clean, got %d", w.Code)
	}
	wire := decode[errs.Wire](t, w)
	if wire.Code != errs.InvalidState {
		t.Errorf("expected INVALID_STATE, got %s", wire.Code)
	}
}

func TestUpload_Multipart(t *testing.T) {
	srv, _ := newTestServer(t, "", 0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "chat.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(export(2)))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := do(t, srv, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpload_Rejections(t *testing.T) {
	srv, _ := newTestServer(t, "", 16)

	w := do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/", strings.NewReader(export(3))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/?platform=myspace", strings.NewReader("x")))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown platform, got %d", w.Code)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/", strings.NewReader("")))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for empty upload, got %d", w.Code)
	}
}

func TestInsights_GatesAndErrors(t *testing.T) {
	srv, proc := newTestServer(t, "", 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/", strings.NewReader(export(4)))
	req.Header.Set(headerUserID, "u1")
	j := decode[job.FileJob](t, do(t, srv, req))

	w := do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/"+j.ID+"/insights", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 before cleaning, got %d", w.Code)
	}

	do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/"+j.ID+"/clean", nil))
	if _, err := proc.WaitForStatus(context.Background(), j.ID, 5*time.Millisecond, 400, job.StatusCompletedBasic); err != nil {
		t.Fatalf("clean did not finish: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/files/"+j.ID+"/insights", strings.NewReader(`{"locale":"en"}`))
	w = do(t, srv, req)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+j.ID+"/insights", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for missing insights, got %d", w.Code)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodPost, "/api/v1/files/"+j.ID+"/retry", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	st := decode[job.ProcessingStatus](t, w)
	if st.Status != job.StatusCompletedBasic {
		t.Errorf("expected COMPLETED_BASIC after retry, got %s", st.Status)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/files/missing/status", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv, _ := newTestServer(t, "secret", 0)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/files/x/status", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/x/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = do(t, srv, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 once authorized, got %d", w.Code)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", w.Code)
	}
}

func TestFirstLanguage(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"zh-CN,zh;q=0.9,en;q=0.8": "zh-CN",
		"en;q=0.5, es-419;q=0.9":  "es-419",
	}
	for in, want := range cases {
		if got := firstLanguage(in); got != want {
			t.Errorf("firstLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
