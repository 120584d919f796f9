package ai

import (
	"strings"

	"github.com/creditchek/devbot/internal/model"
)

// Chunker splits document text into fixed-size overlapping slices. Splitting
// is deterministic: the same input with the same size/overlap always yields
// the same chunks, which keeps rebuild vector counts predictable.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1024
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts one document into ordered chunks. Offsets are in runes so a
// multi-byte character is never cut in half.
func (c *Chunker) Split(doc model.Document) []model.Chunk {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil
	}
	runes := []rune(content)
	step := c.size - c.overlap
	var chunks []model.Chunk
	for start, position := 0, 0; start < len(runes); start, position = start+step, position+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, model.Chunk{
				DocumentURL: doc.URL,
				Position:    position,
				Content:     piece,
			})
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// SplitAll chunks a document set in input order.
func (c *Chunker) SplitAll(docs []model.Document) []model.Chunk {
	var all []model.Chunk
	for _, doc := range docs {
		all = append(all, c.Split(doc)...)
	}
	return all
}
