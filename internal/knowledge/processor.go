package knowledge

import "strings"

const (
	// defaultChunkSize is the target chunk length in characters.
	defaultChunkSize = 1000
	// defaultChunkOverlap is the number of trailing words carried into the
	// next chunk for context continuity.
	defaultChunkOverlap = 200
)

// chunker splits document text into overlapping word-boundary chunks for
// embedding.
type chunker struct {
	chunkSize    int
	chunkOverlap int
}

func newChunker(size, overlap int) chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultChunkOverlap
	}
	return chunker{chunkSize: size, chunkOverlap: overlap}
}

// split breaks text into chunks of roughly chunkSize characters, never
// splitting inside a word. Each chunk starts with the previous chunk's
// trailing words so retrieval hits keep their surrounding context.
func (c chunker) split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	size := 0

	for _, word := range words {
		current = append(current, word)
		size += len(word) + 1

		if size >= c.chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			overlap := c.chunkOverlap
			if overlap > len(current) {
				overlap = len(current)
			}
			current = append([]string(nil), current[len(current)-overlap:]...)
			size = 0
			for _, w := range current {
				size += len(w) + 1
			}
		}
	}

	// A trailing chunk made only of carried-over overlap words would
	// duplicate the previous chunk's tail, so it is emitted only when it
	// grew past the overlap.
	if len(current) > 0 && (len(chunks) == 0 || len(current) > c.chunkOverlap) {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
