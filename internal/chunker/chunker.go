// Package chunker splits document text into overlapping, boundary-aware
// segments for retrieval.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Chunk splits text into pieces of at most maxSize characters, each starting
// overlap characters before the previous cut. Sizes count runes, not bytes.
// Cuts prefer a sentence-ending period, then a space, as long as the boundary
// lies past the middle of the window; otherwise the window is cut hard at
// maxSize. Pieces are trimmed and empty ones dropped.
//
// Text no longer than maxSize is returned as a single chunk unchanged. A
// maxSize of zero or less disables splitting.
func Chunk(text string, maxSize, overlap int) []string {
	if maxSize <= 0 || utf8.RuneCountInString(text) <= maxSize {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []string
	start := 0
	for start < n {
		// In the final window end may run past the text; only the slice is
		// clamped so the next start is still computed from the full window.
		end := start + maxSize
		if end < n {
			end = boundary(runes, start, end, maxSize)
		}

		if piece := strings.TrimSpace(string(runes[start:min(end, n)])); piece != "" {
			chunks = append(chunks, piece)
		}

		// The next window must start past the current one.
		next := end - overlap
		if next <= start {
			next = min(end, n)
		}
		start = next
	}
	return chunks
}

// boundary picks the cut position for the window [start, end).
func boundary(runes []rune, start, end, maxSize int) int {
	mid := start + maxSize/2

	if i := lastIndex(runes[start:end], '.'); i != -1 && start+i > mid {
		return start + i + 1
	}
	if i := lastIndex(runes[start:end], ' '); i != -1 && start+i > mid {
		return start + i
	}
	return end
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
