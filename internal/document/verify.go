package document

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Report summarizes a verified document
type Report struct {
	Pages      int
	PageWidth  float64
	PageHeight float64
}

// Verify parses and validates a serialized PDF, checks that it has
// wantPages pages and that every page is width x height points.
// A wantPages < 0 skips the page count check.
func Verify(data []byte, wantPages int, width, height float64) (*Report, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	if wantPages >= 0 && ctx.PageCount != wantPages {
		return nil, fmt.Errorf("PDF has %d pages, want %d", ctx.PageCount, wantPages)
	}

	report := &Report{Pages: ctx.PageCount}
	if ctx.PageCount == 0 {
		return report, nil
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	for i, d := range dims {
		if !sameSize(d.Width, width) || !sameSize(d.Height, height) {
			return nil, fmt.Errorf("page %d is %.0fx%.0f, want %.0fx%.0f", i+1, d.Width, d.Height, width, height)
		}
	}
	report.PageWidth = dims[0].Width
	report.PageHeight = dims[0].Height

	return report, nil
}

func sameSize(a, b float64) bool {
	return math.Abs(a-b) < 0.5
}
