package model

// ReferenceFact is a verified statement stored in the reference corpus
type ReferenceFact struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	Date      string    `json:"date,omitempty"`
	Category  string    `json:"category,omitempty"`
	Embedding []float32 `json:"-"`
}

// ScoredFact is a reference fact paired with its similarity to a query
type ScoredFact struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
}

// RetrievedEvidence holds up to K facts, ordered by descending similarity
type RetrievedEvidence struct {
	Query string       `json:"query"`
	Facts []ScoredFact `json:"facts"`
}

// Texts returns the fact texts in retrieval order
func (e RetrievedEvidence) Texts() []string {
	texts := make([]string, len(e.Facts))
	for i, f := range e.Facts {
		texts[i] = f.Text
	}
	return texts
}

// Scores returns the similarity scores in retrieval order
func (e RetrievedEvidence) Scores() []float64 {
	scores := make([]float64, len(e.Facts))
	for i, f := range e.Facts {
		scores[i] = f.Score
	}
	return scores
}

// Len returns the number of retrieved facts
func (e RetrievedEvidence) Len() int {
	return len(e.Facts)
}

// StoreMeta records which embedding model indexed the corpus
type StoreMeta struct {
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
}
