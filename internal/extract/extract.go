// Package extract converts raw .txt, .pdf and .docx files into plain text.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/finsage/internal/apperr"
)

// Supported file types.
const (
	TypeText = ".txt"
	TypePDF  = ".pdf"
	TypeDOCX = ".docx"
)

var supported = []string{TypeText, TypePDF, TypeDOCX}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Result is the outcome of a successful extraction.
type Result struct {
	Text     string
	FileType string
	// SkippedPages counts PDF pages whose text could not be extracted; they
	// contribute an empty line instead of failing the document.
	SkippedPages int
}

// SupportedExtensions returns the file extensions Extract accepts.
func SupportedExtensions() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether name has an extension Extract accepts.
func IsSupported(name string) bool {
	ext := NormalizeType(filepath.Ext(name))
	for _, s := range supported {
		if s == ext {
			return true
		}
	}
	return false
}

// NormalizeType lower-cases a file type and ensures it carries a leading dot,
// so "PDF", "pdf" and ".pdf" are all treated alike.
func NormalizeType(fileType string) string {
	t := strings.ToLower(strings.TrimSpace(fileType))
	if t == "" {
		return ""
	}
	if !strings.HasPrefix(t, ".") {
		t = "." + t
	}
	return t
}

// Extract turns data of the declared fileType into text. It fails with
// apperr.ErrUnsupportedFormat for unknown types and apperr.ErrExtraction when
// the bytes cannot be decoded.
func Extract(data []byte, fileType string) (*Result, error) {
	ft := NormalizeType(fileType)
	switch ft {
	case TypeText:
		text, err := decodeText(data)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, FileType: ft}, nil
	case TypePDF:
		text, skipped, err := extractPDF(data)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, FileType: ft, SkippedPages: skipped}, nil
	case TypeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, FileType: ft}, nil
	default:
		return nil, &apperr.UnsupportedFormatError{Extension: ft}
	}
}

// ExtractFile reads path and extracts it according to its extension.
func ExtractFile(path string) (*Result, error) {
	ext := NormalizeType(filepath.Ext(path))
	if !IsSupported(path) {
		return nil, &apperr.UnsupportedFormatError{Extension: ext}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extract: read %s: %w", path, err)
	}
	return Extract(data, ext)
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", apperr.ErrExtraction)
	}
	return string(data), nil
}
