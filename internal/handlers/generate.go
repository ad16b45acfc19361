package handlers

import (
	"log/slog"
	"net/http"

	"github.com/joshmayeda/pGEN-server/internal/models"
)

// DeckFilename is the attachment name of generated decks
const DeckFilename = "generated-deck.pdf"

// HandleGeneratePDF renders the posted card list and returns the PDF
func (h *Handler) HandleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeFailure(w, r, generateFailed, err)
		return
	}

	result, err := h.generator.Run(r.Context(), req.CardRequests())
	if err != nil {
		h.writeFailure(w, r, generateFailed, err)
		return
	}

	slog.Info("Generated deck", "run_id", result.RunID, "cards", result.Cards, "pages", result.Pages, "duration", result.Duration)
	h.writePDF(w, DeckFilename, result.PDF)
}
