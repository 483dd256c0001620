// Package apperr defines the error taxonomy shared by ingestion, storage and answering.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate document")
	ErrEmptyContent      = errors.New("document content is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtraction        = errors.New("text extraction failed")
	ErrPersistence       = errors.New("persistence failure")
	ErrGeneration        = errors.New("answer generation failed")
)

// DuplicateError reports that a document with identical content is already stored.
type DuplicateError struct {
	ID    string
	Title string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("document %q already exists in the knowledge base", e.Title)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// UnsupportedFormatError names the extension the extractor refused.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }
