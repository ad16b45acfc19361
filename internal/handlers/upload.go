package handlers

import (
	"net/http"

	"github.com/joshmayeda/pGEN-server/internal/models"
)

// HandleUploadPDF generates the posted deck and stores it in the
// caller's Drive, authorized by an OAuth code or refresh token
func (h *Handler) HandleUploadPDF(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		h.writeError(w, "Drive upload is not configured", http.StatusServiceUnavailable)
		return
	}

	var req models.UploadRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeFailure(w, r, uploadFailed, err)
		return
	}

	result, err := h.uploader.Persist(r.Context(), req)
	if err != nil {
		h.writeFailure(w, r, uploadFailed, err)
		return
	}

	h.writeJSON(w, result)
}
