package ingest

import "strings"

// Chunking defaults: windows of words with a small overlap so facts that
// straddle a boundary still land in one chunk whole.
const (
	DefaultChunkWords   = 500
	DefaultOverlapWords = 50
)

// ChunkWords splits text into overlapping word windows. The final window
// may be shorter than chunkSize but always carries more than overlap
// words of new material.
func ChunkWords(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkWords
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlapWords
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= chunkSize {
		return []string{strings.Join(words, " ")}
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
