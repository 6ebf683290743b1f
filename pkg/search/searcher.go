package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/embedding"
)

const (
	defaultTopK      = 3
	defaultThreshold = 0.5
	// Filtered searches are already narrow, so a looser threshold keeps
	// recall usable.
	filteredThreshold = 0.3

	contentPreview = 200
)

// Filters are exact-match metadata constraints on the chunk index.
type Filters struct {
	BankingType string
	Tier        string
	ProductType string
}

func (f Filters) Empty() bool {
	return f.BankingType == "" && f.Tier == "" && f.ProductType == ""
}

// FiltersFromFrame maps the known frame slots onto index metadata. The
// catalog stores product types by folder name, not by slot value.
func FiltersFromFrame(frame intent.Frame) Filters {
	productTypes := map[string]string{
		"credit_card":     "credit",
		"debit_card":      "debit",
		"loan":            "loan",
		"savings_account": "savings",
	}
	return Filters{
		BankingType: frame.BankingType.Value(),
		Tier:        frame.Tier.Value(),
		ProductType: productTypes[frame.ProductType.Value()],
	}
}

// ScoredChunk is one index hit with its cosine similarity (0-1, higher is
// more similar).
type ScoredChunk struct {
	ChunkID     string
	ProductName string
	BankingType string
	Tier        string
	Section     string
	SourceFile  string
	Content     string
	Similarity  float64
}

// ChunkStore is the vector-index boundary.
type ChunkStore interface {
	SearchSimilar(ctx context.Context, vector []float32, filters Filters, limit int) ([]ScoredChunk, error)
}

// Searcher runs semantic product search: embed the query, hit the index with
// exact metadata filters, keep hits above the similarity threshold.
type Searcher struct {
	embedder  embedding.Provider
	store     ChunkStore
	topK      int
	threshold float64
	logger    *zap.Logger
}

func NewSearcher(embedder embedding.Provider, store ChunkStore, logger *zap.Logger) *Searcher {
	return &Searcher{
		embedder:  embedder,
		store:     store,
		topK:      defaultTopK,
		threshold: defaultThreshold,
		logger:    logger,
	}
}

// Search returns the top chunks for the query above the active threshold.
func (s *Searcher) Search(ctx context.Context, query string, filters Filters, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.SearchSimilar(ctx, vector, filters, topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	threshold := s.threshold
	if !filters.Empty() {
		threshold = filteredThreshold
	}

	var results []ScoredChunk
	for _, hit := range hits {
		if hit.Similarity >= threshold {
			results = append(results, hit)
		}
	}

	s.logger.Debug("semantic search",
		zap.Int("hits", len(hits)),
		zap.Int("kept", len(results)),
		zap.Float64("threshold", threshold),
	)
	return results, nil
}

// Retrieve runs Search with the frame's filters and formats the hits for the
// generation stages. Empty text means nothing matched.
func (s *Searcher) Retrieve(ctx context.Context, query string, frame intent.Frame) (string, []string, error) {
	results, err := s.Search(ctx, query, FiltersFromFrame(frame), 0)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, nil
	}
	return FormatResults(results), ProductNames(results), nil
}

// FormatResults renders hits the way the stage prompts expect them.
func FormatResults(results []ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Found Products:\n")
	for i, r := range results {
		name := r.ProductName
		if name == "" {
			name = "Unknown"
		}
		content := r.Content
		if len(content) > contentPreview {
			content = content[:contentPreview] + "..."
		}
		fmt.Fprintf(&b, "\n%d. %s\n   Content: %s\n", i+1, name, content)
	}
	return b.String()
}

// ProductNames lists distinct product names in hit order.
func ProductNames(results []ScoredChunk) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range results {
		if r.ProductName == "" || seen[r.ProductName] {
			continue
		}
		seen[r.ProductName] = true
		names = append(names, r.ProductName)
	}
	return names
}
