package ingest

import (
	"iter"
	"strings"
)

// Chunks splits text into roughly equal segments that each fit within the
// chunkSize character budget, with up to chunkOverlap trailing characters
// shared between neighbours so context survives the boundary. Text at or
// under the budget is yielded as a single unchanged chunk. The returned
// sequence is finite and restartable; blank input yields nothing.
func Chunks(text string, chunkSize, chunkOverlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if chunkOverlap < 0 {
			chunkOverlap = 0
		}

		runes := []rune(text)
		n := len(runes)
		if chunkSize <= 0 || n <= chunkSize {
			yield(text)
			return
		}

		numChunks := (n + chunkSize - 1) / chunkSize
		base := n / numChunks

		for i := range numChunks {
			start := i * base
			end := n
			if i < numChunks-1 {
				end = (i+1)*base + chunkOverlap
				if end > n {
					end = n
				}
			}
			if !yield(string(runes[start:end])) {
				return
			}
		}
	}
}

// CollectChunks drains the chunk sequence into a slice.
func CollectChunks(text string, chunkSize, chunkOverlap int) []string {
	var out []string
	for chunk := range Chunks(text, chunkSize, chunkOverlap) {
		out = append(out, chunk)
	}
	return out
}
