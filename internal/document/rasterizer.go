package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

var (
	// ErrUnsupported is returned for content that is neither a PDF nor a decodable image.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrNoPages is returned when a PDF renders to no pages.
	ErrNoPages = errors.New("document has no pages")
)

// DefaultDPI is the rasterization resolution for PDF pages.
const DefaultDPI = 150

// Rasterizer renders documents to page images. PDFs go through poppler's pdftoppm;
// image files are decoded directly.
type Rasterizer struct {
	dpi     int
	timeout time.Duration
	binary  string
	logger  *slog.Logger
}

// NewRasterizer creates a Rasterizer. Non-positive dpi selects DefaultDPI.
func NewRasterizer(dpi int, timeout time.Duration, logger *slog.Logger) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rasterizer{dpi: dpi, timeout: timeout, binary: "pdftoppm", logger: logger}
}

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), []byte("%PDF-"))
}

// Pages renders data to one image per page, in page order.
func (r *Rasterizer) Pages(ctx context.Context, data []byte) ([]image.Image, error) {
	if IsPDF(data) {
		return r.pdfPages(ctx, data)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return []image.Image{img}, nil
}

func (r *Rasterizer) pdfPages(ctx context.Context, data []byte) ([]image.Image, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tmpDir, err := os.MkdirTemp("", "docverify-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.binary,
		"-r", strconv.Itoa(r.dpi),
		"-png",
		inPath,
		filepath.Join(tmpDir, "page"),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	paths, err := filepath.Glob(filepath.Join(tmpDir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoPages
	}
	slices.SortFunc(paths, func(a, b string) int {
		return pageNumber(a) - pageNumber(b)
	})

	pages := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("decode page %s: %w", filepath.Base(p), err)
		}
		pages = append(pages, img)
	}

	r.logger.DebugContext(ctx, "pdf rasterized",
		"pages", len(pages),
		"dpi", r.dpi,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// pageNumber parses N from ".../page-N.png"; pdftoppm zero-pads N by page count.
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	_, num, _ := strings.Cut(base, "-")
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0
	}
	return n
}
