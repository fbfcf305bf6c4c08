// Package pdftext fetches a paper's PDF through a resumable on-disk cache
// and extracts its plain text for the in-terminal preview.
package pdftext

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Extract downloads pdfURL (or reuses the cached copy) and returns its
// plain text with whitespace collapsed.
func Extract(ctx context.Context, pdfURL string) (string, error) {
	cache, err := newPDFCache(nil)
	if err != nil {
		return "", err
	}
	path, err := cache.Fetch(ctx, pdfURL)
	if err != nil {
		return "", err
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}

	fullText := extraneousWhitespace.ReplaceAllString(builder.String(), " ")
	return strings.TrimSpace(fullText), nil
}
