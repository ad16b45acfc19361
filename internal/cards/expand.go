// Package cards expands card requests into the flat list of image
// references the pipeline fetches, one entry per printed copy.
package cards

import (
	"math"
	"strings"

	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/models"
)

// DefaultMaxCards caps a single deck at 100 full pages.
const DefaultMaxCards = 900

// Expand returns the image refs of reqs in input order, each repeated
// Copies times consecutively. It is equivalent to ExpandLimit with
// DefaultMaxCards.
func Expand(reqs []models.CardRequest) ([]string, error) {
	return ExpandLimit(reqs, DefaultMaxCards)
}

// ExpandLimit is Expand with an explicit cap on the expanded length.
// A limit <= 0 disables the cap.
func ExpandLimit(reqs []models.CardRequest, limit int) ([]string, error) {
	total := 0
	for i, r := range reqs {
		if r.Copies < 0 {
			return nil, errs.New(errs.InvalidRequest, r.ImageRef, "card %d: amount must be >= 0, got %d", i, r.Copies)
		}
		if r.Copies > 0 && strings.TrimSpace(r.ImageRef) == "" {
			return nil, errs.New(errs.InvalidRequest, "", "card %d: image is required", i)
		}
		if limit > 0 && r.Copies > limit-total {
			return nil, errs.New(errs.InvalidRequest, "", "deck exceeds %d cards", limit)
		}
		if r.Copies > math.MaxInt-total {
			return nil, errs.New(errs.InvalidRequest, r.ImageRef, "card %d: amount %d is too large", i, r.Copies)
		}
		total += r.Copies
	}

	refs := make([]string, 0, total)
	for _, r := range reqs {
		for range r.Copies {
			refs = append(refs, r.ImageRef)
		}
	}
	return refs, nil
}
