package handler

import (
	"net/http"

	"github.com/studyhub-api/internal/application/account"
	"github.com/studyhub-api/internal/domain"
	"github.com/studyhub-api/internal/transport/http/middleware"
)

// maxAssetSize caps profile asset uploads at 5 MiB.
const maxAssetSize = 5 << 20

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Login(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p loginPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, err)
			return
		}
		token, acc, err := h.svc.Login(r.Context(), role, p.Email, p.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token":   token,
			"account": acc,
		})
	}
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	acc, err := h.svc.Profile(r.Context(), claims.Role, claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	var req domain.UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	acc, err := h.svc.Update(r.Context(), claims.Role, claims.AccountID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// AttachAsset accepts a multipart form with a "file" field and links the
// uploaded object to the caller's profile.
func (h *AccountHandler) AttachAsset(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAssetSize)
	if err := r.ParseMultipartForm(maxAssetSize); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	defer file.Close()

	acc, err := h.svc.AttachAsset(r.Context(), claims.Role, claims.AccountID,
		file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	if err := h.svc.Delete(r.Context(), claims.Role, claims.AccountID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
