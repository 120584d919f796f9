package model

// Document is one crawled/extracted page of the corpus. Immutable once
// created; only ever consumed by index construction.
type Document struct {
	URL       string `json:"url"`
	Content   string `json:"content"`
	FetchedAt int64  `json:"fetched_at"`
}

// Chunk is a bounded slice of a document's text, the unit of embedding
// and retrieval.
type Chunk struct {
	DocumentURL string    `json:"document_url"`
	Position    int       `json:"position"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"-"`
}
