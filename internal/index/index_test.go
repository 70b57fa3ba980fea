package index_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/philippgille/chromem-go"

	"github.com/termstudio/taxon/internal/index"
)

type entry struct {
	termID    string
	text      string
	embedding []float32
}

// buildCollection assembles a chromem collection over precomputed unit
// vectors so queries produce exact cosine similarities.
func buildCollection(t *testing.T, entries []entry) *chromem.Collection {
	t.Helper()

	stub := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding func should not be called")
	}

	collection, err := chromem.NewDB().GetOrCreateCollection("terms", nil, stub)
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}

	docs := make([]chromem.Document, 0, len(entries))
	for seq, e := range entries {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s:%d", e.termID, seq),
			Content: e.text,
			Metadata: map[string]string{
				"term_id": e.termID,
				"seq":     fmt.Sprintf("%d", seq),
			},
			Embedding: e.embedding,
		})
	}

	if err := collection.AddDocuments(context.Background(), docs, 1); err != nil {
		t.Fatalf("add documents: %v", err)
	}

	return collection
}

func buildIndex(t *testing.T, entries []entry) *index.Index {
	t.Helper()

	ix := index.NewIndex()
	ix.Swap(buildCollection(t, entries), len(entries))
	return ix
}

func TestQuery(t *testing.T) {
	entries := []entry{
		{"T-001", "Customer Name - Full legal name", []float32{1, 0, 0}},
		{"T-001", "client name", []float32{0.6, 0.8, 0}},
		{"T-002", "Order Date - Date the order was placed", []float32{0, 1, 0}},
	}

	t.Run("best entry per term determines rank", func(t *testing.T) {
		ix := buildIndex(t, entries)

		hits, err := ix.Query(context.Background(), []float32{0.6, 0.8, 0}, 5)
		if err != nil {
			t.Fatalf("Query error: %v", err)
		}

		if len(hits) != 2 {
			t.Fatalf("len(hits) = %d, want 2 distinct terms", len(hits))
		}

		if hits[0].TermID != "T-001" {
			t.Errorf("hits[0].TermID = %q, want T-001", hits[0].TermID)
		}
		if hits[0].Text != "client name" {
			t.Errorf("hits[0].Text = %q, want the synonym entry", hits[0].Text)
		}
		if hits[1].TermID != "T-002" {
			t.Errorf("hits[1].TermID = %q, want T-002", hits[1].TermID)
		}
		if hits[0].Similarity < hits[1].Similarity {
			t.Errorf("hits not ordered by similarity: %v < %v",
				hits[0].Similarity, hits[1].Similarity)
		}
	})

	t.Run("results truncated to k", func(t *testing.T) {
		ix := buildIndex(t, entries)

		hits, err := ix.Query(context.Background(), []float32{1, 0, 0}, 1)
		if err != nil {
			t.Fatalf("Query error: %v", err)
		}

		if len(hits) != 1 {
			t.Fatalf("len(hits) = %d, want 1", len(hits))
		}
		if hits[0].TermID != "T-001" {
			t.Errorf("hits[0].TermID = %q, want T-001", hits[0].TermID)
		}
	})

	t.Run("equal similarity resolves to earlier entry", func(t *testing.T) {
		ix := buildIndex(t, []entry{
			{"T-010", "Account Balance", []float32{1, 0, 0}},
			{"T-011", "Account Status", []float32{1, 0, 0}},
		})

		hits, err := ix.Query(context.Background(), []float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatalf("Query error: %v", err)
		}

		if len(hits) != 2 {
			t.Fatalf("len(hits) = %d, want 2", len(hits))
		}
		if hits[0].TermID != "T-010" {
			t.Errorf("hits[0].TermID = %q, want earlier entry T-010", hits[0].TermID)
		}
	})

	t.Run("empty index", func(t *testing.T) {
		ix := index.NewIndex()

		_, err := ix.Query(context.Background(), []float32{1, 0, 0}, 5)
		if !errors.Is(err, index.ErrEmpty) {
			t.Errorf("Query error = %v, want ErrEmpty", err)
		}
	})

	t.Run("swap to empty snapshot", func(t *testing.T) {
		ix := buildIndex(t, entries)
		ix.Swap(nil, 0)

		_, err := ix.Query(context.Background(), []float32{1, 0, 0}, 5)
		if !errors.Is(err, index.ErrEmpty) {
			t.Errorf("Query error = %v, want ErrEmpty", err)
		}
	})
}

func TestSwapReplacesSnapshot(t *testing.T) {
	ix := buildIndex(t, []entry{
		{"T-001", "Customer Name - Full legal name", []float32{1, 0, 0}},
		{"T-001", "client name", []float32{0, 1, 0}},
	})

	replacement := []entry{
		{"T-001", "Customer Name - Full legal name", []float32{1, 0, 0}},
	}
	ix.Swap(buildCollection(t, replacement), len(replacement))

	hits, err := ix.Query(context.Background(), []float32{0, 1, 0}, 5)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}

	for _, h := range hits {
		if h.Text == "client name" {
			t.Error("stale synonym entry survived the swap")
		}
	}
	if got := ix.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}

func TestSize(t *testing.T) {
	ix := index.NewIndex()

	if got := ix.Size(); got != 0 {
		t.Errorf("Size() = %d, want 0", got)
	}

	ix = buildIndex(t, []entry{
		{"T-001", "Customer Name", []float32{1, 0, 0}},
		{"T-001", "client name", []float32{0, 1, 0}},
	})

	if got := ix.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}
}
