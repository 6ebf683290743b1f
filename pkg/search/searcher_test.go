package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/intent"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeStore struct {
	hits        []ScoredChunk
	lastFilters Filters
}

func (f *fakeStore) SearchSimilar(ctx context.Context, vector []float32, filters Filters, limit int) ([]ScoredChunk, error) {
	f.lastFilters = filters
	return f.hits, nil
}

func TestSearchThresholds(t *testing.T) {
	store := &fakeStore{hits: []ScoredChunk{
		{ProductName: "A", Similarity: 0.55},
		{ProductName: "B", Similarity: 0.35},
		{ProductName: "C", Similarity: 0.25},
	}}
	s := NewSearcher(&fakeEmbedder{}, store, zap.NewNop())
	ctx := context.Background()

	unfiltered, err := s.Search(ctx, "credit card", Filters{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(unfiltered) != 1 || unfiltered[0].ProductName != "A" {
		t.Errorf("unfiltered = %v, want only A above 0.5", unfiltered)
	}

	filtered, err := s.Search(ctx, "credit card", Filters{Tier: "gold"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 {
		t.Errorf("filtered = %v, want A and B above 0.3", filtered)
	}
}

func TestFiltersFromFrame(t *testing.T) {
	frame := intent.Frame{
		ProductType: intent.Known("credit_card"),
		BankingType: intent.Known("islami"),
		Tier:        intent.Known("gold"),
	}
	f := FiltersFromFrame(frame)
	if f.ProductType != "credit" {
		t.Errorf("ProductType = %q, want catalog folder name", f.ProductType)
	}
	if f.BankingType != "islami" || f.Tier != "gold" {
		t.Errorf("filters = %+v", f)
	}

	if !FiltersFromFrame(intent.Frame{}).Empty() {
		t.Error("empty frame must map to empty filters")
	}
}

func TestRetrieveFormatsResults(t *testing.T) {
	store := &fakeStore{hits: []ScoredChunk{
		{ProductName: "Visa Gold", Content: "Lounge access.", Similarity: 0.8},
		{ProductName: "Visa Gold", Content: "Travel insurance.", Similarity: 0.7},
		{ProductName: "Visa Platinum", Content: "Concierge.", Similarity: 0.6},
	}}
	s := NewSearcher(&fakeEmbedder{}, store, zap.NewNop())

	text, names, err := s.Retrieve(context.Background(), "gold card", intent.Frame{Tier: intent.Known("gold")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "Found Products:") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "1. Visa Gold") || !strings.Contains(text, "Lounge access.") {
		t.Errorf("text = %q", text)
	}
	if len(names) != 2 {
		t.Errorf("names = %v, want deduplicated", names)
	}
}

func TestRetrieveEmptyAndErrors(t *testing.T) {
	s := NewSearcher(&fakeEmbedder{}, &fakeStore{}, zap.NewNop())
	text, names, err := s.Retrieve(context.Background(), "anything", intent.Frame{})
	if err != nil || text != "" || names != nil {
		t.Errorf("no hits: text=%q names=%v err=%v", text, names, err)
	}

	s = NewSearcher(&fakeEmbedder{err: errors.New("ollama down")}, &fakeStore{}, zap.NewNop())
	if _, _, err := s.Retrieve(context.Background(), "anything", intent.Frame{}); err == nil {
		t.Error("embedder failure must surface as an error")
	}
}
