package images

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/joshmayeda/pGEN-server/internal/errs"
)

// Card pixel size: 2.5in x 3.5in at 300 dpi
const (
	CardWidth  = 750
	CardHeight = 1050
)

// FormatPNG is the only output format of the normalizer
const FormatPNG = "png"

// Normalized is a card image re-encoded at the fixed card size
type Normalized struct {
	SourceRef string
	Data      []byte
	Width     int
	Height    int
	Format    string
}

// Normalizer decodes arbitrary image bytes and stretches them to a fixed size.
// Aspect ratio is not preserved; the grid assumes exactly Width x Height.
type Normalizer struct {
	Width  int
	Height int
	Filter imaging.ResampleFilter
}

// NewNormalizer creates a normalizer for the standard card size
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Width:  CardWidth,
		Height: CardHeight,
		Filter: imaging.Lanczos,
	}
}

// Normalize decodes data and re-encodes it as a Width x Height PNG.
// Undecodable input is reported as errs.DecodeFailed carrying ref.
func (n *Normalizer) Normalize(ref string, data []byte) (*Normalized, error) {
	if len(data) == 0 {
		return nil, errs.New(errs.DecodeFailed, ref, "empty image data")
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.DecodeFailed, ref, err, "failed to decode image")
	}

	pixels, err := n.encode(src)
	if err != nil {
		return nil, errs.Wrap(errs.DecodeFailed, ref, err, "failed to encode image")
	}

	return &Normalized{
		SourceRef: ref,
		Data:      pixels,
		Width:     n.Width,
		Height:    n.Height,
		Format:    FormatPNG,
	}, nil
}

func (n *Normalizer) encode(src image.Image) ([]byte, error) {
	if n.Width <= 0 || n.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", n.Width, n.Height)
	}

	dst := imaging.Resize(src, n.Width, n.Height, n.Filter)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
