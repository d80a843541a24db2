package corpus

import "strings"

// Chunk is the unit of retrieval: a fixed-size word window of one book.
// Chunks for a book are produced once and are immutable.
type Chunk struct {
	Book     string `json:"book"`
	Position int    `json:"position"` // Sequence index within the book
	Text     string `json:"text"`
	Words    int    `json:"words"`
}

// Split cuts book text into overlapping word windows. Consecutive chunks
// share overlapWords words so passages spanning a window boundary are
// still retrievable.
func Split(book, text string, chunkWords, overlapWords int) []Chunk {
	if chunkWords <= 0 {
		chunkWords = 3000
	}
	if overlapWords < 0 || overlapWords >= chunkWords {
		overlapWords = chunkWords / 6
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := chunkWords - overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for idx := 0; idx < len(words); idx += step {
		end := idx + chunkWords
		if end > len(words) {
			end = len(words)
		}
		window := words[idx:end]
		chunks = append(chunks, Chunk{
			Book:     book,
			Position: len(chunks),
			Text:     strings.Join(window, " "),
			Words:    len(window),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
