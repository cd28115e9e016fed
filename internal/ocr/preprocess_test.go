package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/extraction"
)

type recordingEngine struct {
	pages  []image.Image
	closed bool
}

func (e *recordingEngine) Recognize(_ context.Context, page image.Image) ([]extraction.RecognizedLine, error) {
	e.pages = append(e.pages, page)
	return []extraction.RecognizedLine{{Text: "RAHUL SHARMA"}}, nil
}

func (e *recordingEngine) Close() error {
	e.closed = true
	return nil
}

func TestDenoiseAndSharpenIsGray(t *testing.T) {
	page := imaging.New(30, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	out := DenoiseAndSharpen(page)

	require.Equal(t, 30, out.Rect.Dx())
	require.Equal(t, 20, out.Rect.Dy())
	first := out.NRGBAAt(0, 0)
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			px := out.NRGBAAt(x, y)
			require.Equal(t, px.R, px.G, "pixel %d,%d", x, y)
			require.Equal(t, px.R, px.B, "pixel %d,%d", x, y)
			require.Equal(t, first, px, "uniform page stays uniform")
		}
	}
}

func TestDenoiseAndSharpenSteepensEdges(t *testing.T) {
	page := imaging.New(40, 5, color.Gray{Y: 100})
	for y := 0; y < 5; y++ {
		for x := 20; x < 40; x++ {
			page.Set(x, y, color.Gray{Y: 200})
		}
	}

	out := DenoiseAndSharpen(page)

	darkest, brightest := uint8(255), uint8(0)
	for x := 0; x < 20; x++ {
		darkest = min(darkest, out.NRGBAAt(x, 2).R)
	}
	for x := 20; x < 40; x++ {
		brightest = max(brightest, out.NRGBAAt(x, 2).R)
	}
	assert.InDelta(t, 100, int(out.NRGBAAt(0, 2).R), 1, "flat regions keep their level")
	assert.Less(t, darkest, uint8(95), "dark side undershoots next to the edge")
	assert.Greater(t, brightest, uint8(205), "bright side overshoots next to the edge")
}

func TestPreprocessedFactory(t *testing.T) {
	inner := &recordingEngine{}
	factory := PreprocessedFactory(func(context.Context) (Engine, error) { return inner, nil })

	e, err := factory(context.Background())
	require.NoError(t, err)

	page := imaging.New(12, 8, color.NRGBA{R: 10, G: 200, B: 90, A: 255})
	lines, err := e.Recognize(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "RAHUL SHARMA", lines[0].Text)

	require.Len(t, inner.pages, 1)
	seen := inner.pages[0]
	assert.Equal(t, page.Bounds().Size(), seen.Bounds().Size())
	r, g, b, _ := seen.At(3, 3).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, r, b)

	require.NoError(t, e.Close())
	assert.True(t, inner.closed)
}
