package services

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// Segment is one independently split unit of extracted text. Page is 1-based for PDFs and 0 otherwise.
type Segment struct {
	Page int
	Text string
}

// Extractor turns raw file bytes into text segments.
type Extractor interface {
	Extract(data []byte) ([]Segment, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte) ([]Segment, error)

func (f ExtractorFunc) Extract(data []byte) ([]Segment, error) { return f(data) }

// DefaultExtractors maps supported extensions to their extractors.
func DefaultExtractors() map[string]Extractor {
	text := ExtractorFunc(extractPlainText)
	return map[string]Extractor{
		".pdf": ExtractorFunc(extractPDFPages),
		".txt": text,
		".md":  text,
	}
}

// SetPDFLicense registers the UniDoc metered key needed for PDF extraction.
func SetPDFLicense(key string) error {
	if key == "" {
		return errors.New("no UniDoc license key configured, PDF extraction will fail")
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set UniDoc license key: %w", err)
	}
	return nil
}

func extensionOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlainText decodes UTF-8 text, dropping a leading byte order mark.
func extractPlainText(data []byte) ([]Segment, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("file is not valid UTF-8 text")
	}
	return []Segment{{Page: 0, Text: string(data)}}, nil
}

// extractPDFPages uses UniPDF to extract the text of each page separately.
func extractPDFPages(data []byte) (segments []Segment, err error) {
	// unipdf can panic on malformed input; report it as a parse failure.
	defer func() {
		if r := recover(); r != nil {
			segments, err = nil, fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	segments = make([]Segment, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		segments = append(segments, Segment{Page: i, Text: text})
	}
	return segments, nil
}
