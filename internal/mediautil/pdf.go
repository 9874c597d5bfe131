package mediautil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const pdftoppmBinary = "pdftoppm"

// RasterizePDF renders every page of a PDF to a JPEG within maxDim, in page
// order. Rendering shells out to pdftoppm, the same way video extraction
// shells out to ffmpeg.
func RasterizePDF(ctx context.Context, pdfPath string, maxDim int) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdfraster")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, pdftoppmBinary, "-jpeg", "-r", "150", pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages rendered from %s", pdfPath)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(pages)

	images := make([][]byte, 0, len(pages))
	for _, page := range pages {
		data, err := LoadImage(page, maxDim)
		if err != nil {
			return nil, fmt.Errorf("load page %s: %w", filepath.Base(page), err)
		}
		images = append(images, data)
	}
	return images, nil
}

// ExtractPDFText pulls the plain text out of a PDF. An empty string with no
// error means the document carries no extractable text.
func ExtractPDFText(pdfPath string) (string, error) {
	file, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
