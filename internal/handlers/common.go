package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/joshmayeda/pGEN-server/internal/auth"
	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/models"
	"github.com/joshmayeda/pGEN-server/internal/pipeline"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// Response error strings kept for existing clients
const (
	generateFailed = "Failed to generate PDF"
	uploadFailed   = "Failed to upload PDF"
	authFailed     = "Failed to authorize"
)

// Generator produces a deck PDF
type Generator interface {
	Run(ctx context.Context, reqs []models.CardRequest) (*pipeline.Result, error)
}

// Uploader generates a deck and stores it for the caller
type Uploader interface {
	Persist(ctx context.Context, req models.UploadRequest) (*models.UploadResult, error)
}

type Handler struct {
	generator Generator
	uploader  Uploader
	tokens    auth.TokenProvider
	states    *auth.StateStore
}

// New creates a handler. uploader and tokens may be nil when Drive
// upload is not configured; the related routes then answer 503.
func New(generator Generator, uploader Uploader, tokens auth.TokenProvider) *Handler {
	return &Handler{
		generator: generator,
		uploader:  uploader,
		tokens:    tokens,
		states:    auth.NewStateStore(auth.DefaultStateTTL),
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	h.writeJSONStatus(w, code, errorResponse{Error: message})
}

// writeFailure reports err under the given top-level error string with a
// status derived from its kind
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	kind := errs.KindOf(err)
	code := statusFor(kind)

	slog.Error(message,
		"request_id", middleware.GetReqID(r.Context()),
		"kind", kind,
		"ref", errs.RefOf(err),
		"status", code,
		"err", err)

	resp := errorResponse{
		Error: message,
		Kind:  string(kind),
		Ref:   errs.RefOf(err),
	}
	if kind != "" {
		resp.Message = errs.Message(err)
	}
	h.writeJSONStatus(w, code, resp)
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidRequest:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.DecodeFailed:
		return http.StatusUnprocessableEntity
	case errs.FetchFailed, errs.UploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-capped JSON body into dst
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.New(errs.InvalidRequest, "", "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errs.Wrap(errs.InvalidRequest, "", err, "invalid JSON")
	}
	return nil
}

// writePDF sends data as a downloadable attachment
func (h *Handler) writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write PDF response", "err", err)
	}
}
