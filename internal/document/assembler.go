// Package document renders laid-out card images into a PDF.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/layout"
)

// Default document metadata
const (
	DefaultTitle   = "generated-deck"
	DefaultCreator = "pgen"
)

// Image is one PNG to draw at a placement on a page
type Image struct {
	Ref       string
	Data      []byte
	Placement layout.Placement
}

// Page is one canvas of the output document
type Page struct {
	Images []Image
}

// Assembler writes pages of placed PNG images as a single PDF.
// Page size and placements are in PDF points.
type Assembler struct {
	PageWidth  float64
	PageHeight float64
	Title      string
	Creator    string
}

// NewAssembler creates an assembler for pages of the given grid
func NewAssembler(grid layout.Grid) *Assembler {
	return &Assembler{
		PageWidth:  grid.PageWidth,
		PageHeight: grid.PageHeight,
		Title:      DefaultTitle,
		Creator:    DefaultCreator,
	}
}

func (a *Assembler) newPdf() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: a.PageWidth, Ht: a.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if a.Title != "" {
		pdf.SetTitle(a.Title, true)
	}
	if a.Creator != "" {
		pdf.SetCreator(a.Creator, true)
	}
	return pdf
}

// Assemble draws every page in order and writes the serialized PDF to w.
//
// Identical pixel data is embedded once and referenced from every
// placement that uses it. A malformed image fails with errs.EmbedFailed
// and nothing is written to w. No pages yields a valid empty document.
func (a *Assembler) Assemble(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return a.writeEmpty(w)
	}

	pdf := a.newPdf()
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}

	registered := make(map[string]bool)
	for p, page := range pages {
		pdf.AddPage()

		for _, img := range page.Images {
			name := imageName(img.Data)
			if !registered[name] {
				if len(img.Data) == 0 {
					return errs.New(errs.EmbedFailed, img.Ref, "empty image data on page %d", p+1)
				}
				pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
				if pdf.Err() {
					return errs.Wrap(errs.EmbedFailed, img.Ref, pdf.Error(), "failed to embed image on page %d", p+1)
				}
				registered[name] = true
			}

			pl := img.Placement
			// fpdf measures y from the top edge
			top := a.PageHeight - pl.Y - pl.Height
			pdf.ImageOptions(name, pl.X, top, pl.Width, pl.Height, false, opts, 0, "")
			if pdf.Err() {
				return errs.Wrap(errs.EmbedFailed, img.Ref, pdf.Error(), "failed to draw image on page %d", p+1)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return errs.Wrap(errs.SerializationFailed, "", err, "failed to serialize document")
	}
	n, err := buf.WriteTo(w)
	if err != nil {
		return errs.Wrap(errs.SerializationFailed, "", err, "failed to write document")
	}

	slog.Debug("Assembled document", "pages", len(pages), "embedded_images", len(registered), "bytes", n)
	return nil
}

// writeEmpty emits a document whose page tree has no kids. fpdf always
// adds a first page on close, so pdfcpu builds this one.
func (a *Assembler) writeEmpty(w io.Writer) error {
	disableConfigDir.Do(api.DisableConfigDir)

	ctx, err := pdfcpu.CreateContextWithXRefTable(model.NewDefaultConfiguration(), &types.Dim{Width: a.PageWidth, Height: a.PageHeight})
	if err != nil {
		return errs.Wrap(errs.SerializationFailed, "", err, "failed to create empty document")
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return errs.Wrap(errs.SerializationFailed, "", err, "failed to serialize document")
	}
	n, err := buf.WriteTo(w)
	if err != nil {
		return errs.Wrap(errs.SerializationFailed, "", err, "failed to write document")
	}

	slog.Debug("Assembled empty document", "bytes", n)
	return nil
}

func imageName(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
