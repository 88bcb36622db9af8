package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

// ArtifactSource redeems single-use download tokens for file content.
type ArtifactSource interface {
	Redeem(tokenValue string, kind models.ArtifactKind) (io.ReadCloser, string, error)
}

// DownloadHandler streams generated artifacts behind their single-use
// tokens. A token works once; expired, used, unknown, and wrong-kind tokens
// are indistinguishable on purpose.
type DownloadHandler struct {
	artifacts ArtifactSource
}

func NewDownloadHandler(artifacts ArtifactSource) *DownloadHandler {
	return &DownloadHandler{artifacts: artifacts}
}

func (h *DownloadHandler) ConfigFile(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, models.ArtifactConfigFile, "application/octet-stream")
}

func (h *DownloadHandler) ClientBundle(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, models.ArtifactClientBundle, "application/zip")
}

func (h *DownloadHandler) serve(w http.ResponseWriter, r *http.Request, kind models.ArtifactKind, contentType string) {
	tokenValue := chi.URLParam(r, "token")
	if tokenValue == "" {
		badRequest(w, "token is required")
		return
	}

	content, filename, err := h.artifacts.Redeem(tokenValue, kind)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "Download link is invalid or has expired")
			return
		}
		slog.Error("error redeeming download token", "component", "api", "error", err)
		internalError(w)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, content); err != nil {
		slog.Error("error streaming artifact", "component", "api", "error", err)
	}
}
