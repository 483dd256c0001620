// Package checksum derives stable content fingerprints used as document IDs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// DocumentID returns the identifier of a document with the given normalized
// content. Identical content always yields the same ID.
func DocumentID(content string) string {
	return Sum([]byte(content))
}
