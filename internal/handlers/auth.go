package handlers

import (
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/models"
)

func tokenResponse(tok *oauth2.Token) models.TokenResponse {
	return models.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

func (h *Handler) requireTokens(w http.ResponseWriter) bool {
	if h.tokens == nil {
		h.writeError(w, "Google OAuth is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// HandleAuthURL returns the consent page URL with a fresh state value
func (h *Handler) HandleAuthURL(w http.ResponseWriter, r *http.Request) {
	if !h.requireTokens(w) {
		return
	}

	state := h.states.Issue()
	slog.Debug("Issued OAuth state", "outstanding", h.states.Len())
	h.writeJSON(w, map[string]string{
		"url":   h.tokens.AuthCodeURL(state),
		"state": state,
	})
}

// HandleAuthCallback completes the redirect leg of the consent flow
func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !h.requireTokens(w) {
		return
	}

	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		h.writeFailure(w, r, authFailed, errs.New(errs.Unauthorized, "", "consent denied: %s", reason))
		return
	}
	if !h.states.Consume(q.Get("state")) {
		h.writeFailure(w, r, authFailed, errs.New(errs.InvalidRequest, "", "unknown or expired state"))
		return
	}

	tok, err := h.tokens.ExchangeCode(r.Context(), q.Get("code"))
	if err != nil {
		h.writeFailure(w, r, authFailed, err)
		return
	}
	h.writeJSON(w, tokenResponse(tok))
}

// HandleAuthToken exchanges an authorization code obtained by the client
func (h *Handler) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	if !h.requireTokens(w) {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeFailure(w, r, authFailed, err)
		return
	}

	tok, err := h.tokens.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.writeFailure(w, r, authFailed, err)
		return
	}
	h.writeJSON(w, tokenResponse(tok))
}

// HandleAuthRefresh trades a refresh token for a new access token
func (h *Handler) HandleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.requireTokens(w) {
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeFailure(w, r, authFailed, err)
		return
	}

	tok, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeFailure(w, r, authFailed, err)
		return
	}
	h.writeJSON(w, tokenResponse(tok))
}
