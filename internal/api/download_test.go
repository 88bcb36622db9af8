package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type fakeArtifactSource struct {
	content  string
	filename string
	err      error

	gotToken string
	gotKind  models.ArtifactKind
}

func (s *fakeArtifactSource) Redeem(tokenValue string, kind models.ArtifactKind) (io.ReadCloser, string, error) {
	s.gotToken = tokenValue
	s.gotKind = kind
	if s.err != nil {
		return nil, "", s.err
	}
	return io.NopCloser(strings.NewReader(s.content)), s.filename, nil
}

func downloadRouter(source *fakeArtifactSource) *chi.Mux {
	handler := NewDownloadHandler(source)
	r := chi.NewRouter()
	r.Get("/download/config/{token}", handler.ConfigFile)
	r.Get("/download/client/{token}", handler.ClientBundle)
	return r
}

func TestDownloadStreamsConfigFile(t *testing.T) {
	source := &fakeArtifactSource{content: "connection file", filename: "alice.tt"}
	router := downloadRouter(source)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/download/config/tok123", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if source.gotToken != "tok123" || source.gotKind != models.ArtifactConfigFile {
		t.Fatalf("redeemed token=%q kind=%q", source.gotToken, source.gotKind)
	}
	if got := rec.Body.String(); got != "connection file" {
		t.Fatalf("body = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `"alice.tt"`) {
		t.Fatalf("Content-Disposition = %q", got)
	}
}

func TestDownloadClientBundleKind(t *testing.T) {
	source := &fakeArtifactSource{content: "zip bytes", filename: "client.zip"}
	router := downloadRouter(source)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/download/client/tok123", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if source.gotKind != models.ArtifactClientBundle {
		t.Fatalf("kind = %q, want %q", source.gotKind, models.ArtifactClientBundle)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/zip" {
		t.Fatalf("Content-Type = %q", got)
	}
}

func TestDownloadUnknownTokenReturns404(t *testing.T) {
	source := &fakeArtifactSource{err: db.ErrNotFound}
	router := downloadRouter(source)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/download/config/expired", nil))

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Fatalf("code = %q, want %q", resp.Error.Code, ErrCodeNotFound)
	}
}
