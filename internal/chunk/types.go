// Package chunk splits extracted document text into bounded,
// overlapping segments. Splitting is deterministic: the same text and
// options always produce the same chunk sequence, which matters because
// chunk identity downstream is derived from chunk content.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
)

// Chunking defaults, tuned for prose vaults.
const (
	DefaultMaxSize = 1000 // Upper bound on chunk length, in runes
	DefaultOverlap = 100  // Runes shared between consecutive chunks
	DefaultMinSize = 50   // Chunks shorter than this merge into their predecessor

	// sentenceScanWindow bounds the backward search for a sentence
	// terminator to the tail of the current window.
	sentenceScanWindow = 500
)

// Chunk is a bounded, possibly overlapping segment of a document's
// extracted text. It is the unit of embedding and retrieval.
type Chunk struct {
	Text      string
	FilePath  string // Absolute path of the source document
	Index     int    // Ordinal among sibling chunks, 0-based
	Total     int    // Sibling count, stamped after the merge pass
	StartChar int    // Rune offset into the source text, inclusive
	EndChar   int    // Rune offset, exclusive
}

// HashText returns the hex-encoded SHA-256 of text. It is the global
// deduplication key for chunk records.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Hash returns the deduplication key for the chunk's text.
func (c *Chunk) Hash() string {
	return HashText(c.Text)
}
