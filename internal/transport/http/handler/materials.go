package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyhub-api/internal/application/account"
	"github.com/studyhub-api/internal/application/material"
	"github.com/studyhub-api/internal/domain"
	"github.com/studyhub-api/internal/transport/http/middleware"
)

// maxMaterialSize caps course material uploads at 50 MiB.
const maxMaterialSize = 50 << 20

type MaterialHandler struct {
	svc      material.Service
	accounts account.Service
}

func NewMaterialHandler(svc material.Service, accounts account.Service) *MaterialHandler {
	return &MaterialHandler{svc: svc, accounts: accounts}
}

// callerIdentifier resolves the authenticated caller's employee ID from their
// profile. Ownership is keyed on the identifier, not the account id.
func (h *MaterialHandler) callerIdentifier(r *http.Request) (string, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", domain.ErrUnauthorized
	}
	acc, err := h.accounts.Profile(r.Context(), claims.Role, claims.AccountID)
	if err != nil {
		return "", err
	}
	return acc.Identifier, nil
}

// Upload accepts a multipart form: a "file" field plus title, subject and the
// optional description, course_code and tags fields.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.callerIdentifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMaterialSize)
	if err := r.ParseMultipartForm(maxMaterialSize); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("file is required: %w", domain.ErrValidation))
		return
	}
	defer file.Close()

	m, err := h.svc.Upload(r.Context(), material.UploadInput{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Meta: domain.CreateMaterialRequest{
			Title:       r.FormValue("title"),
			Subject:     r.FormValue("subject"),
			Description: r.FormValue("description"),
			CourseCode:  r.FormValue("course_code"),
			Tags:        r.FormValue("tags"),
		},
		OwnerIdentifier: ownerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListOwn returns the authenticated faculty member's own uploads, newest first.
func (h *MaterialHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.callerIdentifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	materials, err := h.svc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"materials": materials})
}

// List is the public catalog, newest first. An employee_id query parameter
// narrows it to one faculty member's uploads.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		materials []domain.Material
		err       error
	)
	if owner := r.URL.Query().Get("employee_id"); owner != "" {
		materials, err = h.svc.ListByOwner(r.Context(), owner)
	} else {
		materials, err = h.svc.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"materials": materials})
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.callerIdentifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), ownerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "material deleted"})
}

// DownloadOwn streams a material back to its owner; the ownership check
// rejects other faculty members' ids.
func (h *MaterialHandler) DownloadOwn(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.callerIdentifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.stream(w, r, chi.URLParam(r, "id"), ownerID)
}

// DownloadPublic streams a material to anyone; students browse and download
// without authentication.
func (h *MaterialHandler) DownloadPublic(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, chi.URLParam(r, "id"), "")
}

func (h *MaterialHandler) stream(w http.ResponseWriter, r *http.Request, materialID, callerIdentifier string) {
	res, err := h.svc.Download(r.Context(), materialID, callerIdentifier)
	if err != nil {
		writeError(w, err)
		return
	}
	defer res.Body.Close()

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	if _, err := io.Copy(w, res.Body); err != nil {
		// Headers are already out; nothing to send back but the log.
		slog.Warn("material stream interrupted", "material_id", materialID, "err", err)
	}
}
