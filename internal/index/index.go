// Package index maintains the in-memory vector index over catalog terms.
// Each term contributes one entry for its combined name and definition plus
// one entry per synonym; a query aggregates entry hits so a term's best
// matching text determines its rank. Rebuilds construct a fresh snapshot
// off-lock and swap it in atomically, so classification reads never observe
// a partially built index.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
)

// ErrEmpty indicates the index holds no terms, either because no catalog
// has been loaded or the last rebuild failed.
var ErrEmpty = errors.New("term index is empty")

// Hit is an aggregated per-term query result. Text is the entry that scored
// highest for the term; Seq is that entry's insertion sequence, used for
// deterministic ordering between equal similarities.
type Hit struct {
	TermID     string
	Text       string
	Similarity float64
	Seq        int
}

// Index is a swappable snapshot over a chromem collection.
type Index struct {
	mu         sync.RWMutex
	collection *chromem.Collection
	count      int
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{}
}

// Swap atomically replaces the current snapshot.
func (ix *Index) Swap(collection *chromem.Collection, count int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.collection = collection
	ix.count = count
}

// Size returns the number of entries in the current snapshot.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.count
}

func (ix *Index) snapshot() (*chromem.Collection, int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collection, ix.count
}

// Query returns the top k distinct terms by best-entry similarity. Ties
// resolve toward the entry inserted first. Returns ErrEmpty when no
// snapshot is loaded.
func (ix *Index) Query(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	collection, count := ix.snapshot()
	if collection == nil || count == 0 {
		return nil, ErrEmpty
	}

	// Entry hits oversample distinct terms since one term may occupy
	// several of the nearest entries through its synonyms.
	nResults := k * 8
	if nResults > count {
		nResults = count
	}

	results, err := collection.QueryEmbedding(ctx, vec, nResults, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	best := map[string]Hit{}
	for _, r := range results {
		seq, err := strconv.Atoi(r.Metadata[metaSeq])
		if err != nil {
			return nil, fmt.Errorf("corrupt index entry %s: %w", r.ID, err)
		}

		hit := Hit{
			TermID:     r.Metadata[metaTermID],
			Text:       r.Content,
			Similarity: float64(r.Similarity),
			Seq:        seq,
		}

		current, ok := best[hit.TermID]
		if !ok || better(hit, current) {
			best[hit.TermID] = hit
		}
	}

	hits := make([]Hit, 0, len(best))
	for _, hit := range best {
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		return better(hits[i], hits[j])
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func better(a, b Hit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Seq < b.Seq
}
