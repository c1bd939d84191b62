package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// TextExtractor turns a raw document source into plain text plus structural
// metadata. Implementations are external collaborators as far as the
// pipeline is concerned.
type TextExtractor interface {
	Extract(ctx context.Context, sourcePath string) (string, DocumentMeta, error)
}

// FileExtractor reads .txt/.md sources directly and uses pdfcpu for PDF
// validation, page counts and content extraction.
type FileExtractor struct{}

// NewFileExtractor creates a FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

func (e *FileExtractor) Extract(ctx context.Context, sourcePath string) (string, DocumentMeta, error) {
	if err := ctx.Err(); err != nil {
		return "", DocumentMeta{}, err
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return "", DocumentMeta{}, &ExtractionFailure{Reason: "unreadable source", Err: err}
		}
		text := string(data)
		if strings.TrimSpace(text) == "" {
			return "", DocumentMeta{}, &ExtractionFailure{Reason: "empty document"}
		}
		return text, DocumentMeta{Format: "text", PageCount: 1}, nil

	case ".pdf":
		return e.extractPDF(sourcePath)

	default:
		return "", DocumentMeta{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func (e *FileExtractor) extractPDF(sourcePath string) (string, DocumentMeta, error) {
	if err := api.ValidateFile(sourcePath, nil); err != nil {
		return "", DocumentMeta{}, &ExtractionFailure{Reason: "invalid pdf", Err: err}
	}

	pageCount, err := api.PageCountFile(sourcePath)
	if err != nil {
		return "", DocumentMeta{}, &ExtractionFailure{Reason: "page count", Err: err}
	}

	outDir, err := os.MkdirTemp("", "extract-*")
	if err != nil {
		return "", DocumentMeta{}, &ExtractionFailure{Reason: "temp dir", Err: err}
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(sourcePath, outDir, nil, nil); err != nil {
		return "", DocumentMeta{}, &ExtractionFailure{Reason: "content extraction", Err: err}
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", DocumentMeta{}, &ExtractionFailure{Reason: "read extracted content", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return "", DocumentMeta{}, &ExtractionFailure{Reason: "read extracted content", Err: err}
		}
		fmt.Fprintf(&b, "[Page %d]\n", i+1)
		b.Write(data)
		b.WriteString("\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", DocumentMeta{}, &ExtractionFailure{Reason: "no extractable text"}
	}

	return text, DocumentMeta{Format: "pdf", PageCount: pageCount}, nil
}
