package ocr

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"docverify/internal/extraction"
)

const (
	denoiseSigma = 1.0
	unsharpSigma = 3.0
	unsharpGain  = 1.5
)

// Preprocessed runs DenoiseAndSharpen on every page before handing it to next.
type Preprocessed struct {
	next Engine
}

// NewPreprocessed wraps next.
func NewPreprocessed(next Engine) *Preprocessed {
	return &Preprocessed{next: next}
}

// PreprocessedFactory wraps every handle built by factory.
func PreprocessedFactory(factory Factory) Factory {
	return func(ctx context.Context) (Engine, error) {
		e, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		return NewPreprocessed(e), nil
	}
}

func (p *Preprocessed) Recognize(ctx context.Context, page image.Image) ([]extraction.RecognizedLine, error) {
	return p.next.Recognize(ctx, DenoiseAndSharpen(page))
}

func (p *Preprocessed) Close() error {
	return p.next.Close()
}

// DenoiseAndSharpen converts page to grayscale, smooths out sensor noise and applies
// an unsharp mask: gain*denoised - (gain-1)*blurred. The result is gray on all three
// channels with page's size, anchored at the origin.
func DenoiseAndSharpen(page image.Image) *image.NRGBA {
	denoised := imaging.Blur(imaging.Grayscale(page), denoiseSigma)
	blurred := imaging.Blur(denoised, unsharpSigma)

	out := imaging.New(denoised.Rect.Dx(), denoised.Rect.Dy(), image.Transparent)
	for i := 0; i < len(out.Pix); i += 4 {
		v := clamp8(unsharpGain*float64(denoised.Pix[i]) - (unsharpGain-1)*float64(blurred.Pix[i]))
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
		out.Pix[i+3] = denoised.Pix[i+3]
	}
	return out
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
