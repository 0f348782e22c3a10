// Package text implements the deterministic, overlap-aware splitter that
// feeds the ingest pipeline. It is pure: no I/O, no shared state, identical
// input always yields the identical chunk sequence.
package text

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// DefaultSeparators orders separators coarse to fine: paragraph break, line
// break, word boundary, then single characters as the final fallback.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunk is a single split unit ready for embedding and storage.
type Chunk struct {
	Title       string
	Index       int
	Content     string
	ContentHash string
}

var ErrInvalidChunkParams = errors.New("chunk overlap must be non-negative and smaller than chunk size")

// Hash returns the stable SHA-256 hex digest used for idempotency checks.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Split breaks text into ordered, zero-indexed chunks of at most chunkSize
// characters, with adjacent chunks sharing roughly chunkOverlap characters.
// Each chunk hash covers title + content, so the same text under a different
// title hashes differently. Empty input yields an empty sequence.
func Split(title, text string, chunkSize, chunkOverlap int) ([]Chunk, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, ErrInvalidChunkParams
	}

	pieces := splitRecursive(text, chunkSize, chunkOverlap, DefaultSeparators)

	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, Chunk{
			Title:       title,
			Index:       i,
			Content:     piece,
			ContentHash: Hash(title + "\n" + piece),
		})
	}
	return chunks, nil
}

// splitRecursive picks the coarsest separator present in the text, splits on
// it, and recursively re-splits any piece still over the size limit with the
// finer separators. Pieces that fit are merged back up to chunkSize with
// trailing overlap carried into the next chunk.
func splitRecursive(text string, chunkSize, chunkOverlap int, separators []string) []string {
	if text == "" {
		return nil
	}

	sep := separators[len(separators)-1]
	var finer []string
	for i, s := range separators {
		if s == "" {
			sep = s
			finer = nil
			break
		}
		if strings.Contains(text, s) {
			sep = s
			finer = separators[i+1:]
			break
		}
	}

	var final []string
	var fitting []string
	for _, piece := range splitOn(text, sep) {
		if len(piece) < chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			final = append(final, mergePieces(fitting, sep, chunkSize, chunkOverlap)...)
			fitting = nil
		}
		if len(finer) == 0 {
			// No finer separator left; emit oversized as-is.
			final = append(final, piece)
		} else {
			final = append(final, splitRecursive(piece, chunkSize, chunkOverlap, finer)...)
		}
	}
	if len(fitting) > 0 {
		final = append(final, mergePieces(fitting, sep, chunkSize, chunkOverlap)...)
	}
	return final
}

func splitOn(text, sep string) []string {
	if sep == "" {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.Split(text, sep)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// mergePieces greedily packs adjacent pieces into chunks of at most
// chunkSize, rejoining with the separator they were split on. When a chunk
// fills up it is emitted and pieces drop from the front until the carried
// tail is at most chunkOverlap, so consecutive chunks share context.
func mergePieces(pieces []string, sep string, chunkSize, chunkOverlap int) []string {
	var out []string
	var window []string
	total := 0

	joinLen := func(n int) int {
		if n > 0 {
			return len(sep)
		}
		return 0
	}

	for _, piece := range pieces {
		pieceLen := len(piece)
		if total+pieceLen+joinLen(len(window)) > chunkSize && len(window) > 0 {
			if doc := joinPieces(window, sep); doc != "" {
				out = append(out, doc)
			}
			for total > chunkOverlap || (total+pieceLen+joinLen(len(window)) > chunkSize && total > 0) {
				total -= len(window[0]) + joinLen(len(window)-1)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen + joinLen(len(window)-1)
	}

	if doc := joinPieces(window, sep); doc != "" {
		out = append(out, doc)
	}
	return out
}

func joinPieces(pieces []string, sep string) string {
	return strings.TrimSpace(strings.Join(pieces, sep))
}
