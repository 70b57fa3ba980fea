package index

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/termstudio/taxon/internal/catalog"
	"github.com/termstudio/taxon/internal/embedding"
	"github.com/termstudio/taxon/internal/synonyms"
	"github.com/termstudio/taxon/pkg/lifecycle"
)

const (
	collectionName = "terms"

	metaTermID = "term_id"
	metaSeq    = "seq"

	addConcurrency = 4
)

// Builder constructs index snapshots from the catalog. It generates and
// persists synonyms for terms that lack them, embeds every entry text, and
// swaps the finished snapshot into the live Index. Builder satisfies
// catalog.Refresher.
type Builder struct {
	index      *Index
	catalog    catalog.System
	synonyms   *synonyms.Generator
	embeddings embedding.Provider
	logger     *slog.Logger
}

// NewBuilder creates a Builder targeting the given Index.
func NewBuilder(
	ix *Index,
	cat catalog.System,
	gen *synonyms.Generator,
	provider embedding.Provider,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		index:      ix,
		catalog:    cat,
		synonyms:   gen,
		embeddings: provider,
		logger:     logger.With("system", "index"),
	}
}

// Index returns the live index the builder swaps snapshots into.
func (b *Builder) Index() *Index {
	return b.index
}

// Start registers an initial rebuild as a startup hook so a previously
// loaded catalog is searchable without re-uploading it.
func (b *Builder) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := b.Rebuild(lc.Context()); err != nil {
			b.logger.Warn("initial index build failed", "error", err)
		}
	})
	return nil
}

type entry struct {
	termID string
	text   string
	seq    int
}

// Rebuild constructs a fresh snapshot from the full catalog and swaps it
// in. The live index keeps serving the previous snapshot until the swap.
// A term whose synonym generation fails is indexed without synonyms rather
// than aborting the rebuild.
func (b *Builder) Rebuild(ctx context.Context) error {
	terms, err := b.catalog.All(ctx)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	if len(terms) == 0 {
		b.index.Swap(nil, 0)
		b.logger.Info("index rebuilt empty")
		return nil
	}

	entries := b.collectEntries(ctx, terms)

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}

	vecs, err := b.embeddings.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed index entries: %w", err)
	}
	if len(vecs) != len(entries) {
		return fmt.Errorf("embed index entries: got %d vectors for %d texts", len(vecs), len(entries))
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s:%d", e.termID, e.seq),
			Content: e.text,
			Metadata: map[string]string{
				metaTermID: e.termID,
				metaSeq:    strconv.Itoa(e.seq),
			},
			Embedding: vecs[i],
		}
	}

	collection, err := chromem.NewDB().GetOrCreateCollection(collectionName, nil, b.embeddingFunc())
	if err != nil {
		return fmt.Errorf("create index collection: %w", err)
	}

	if err := collection.AddDocuments(ctx, docs, addConcurrency); err != nil {
		return fmt.Errorf("populate index: %w", err)
	}

	b.index.Swap(collection, len(docs))
	b.logger.Info("index rebuilt", "terms", len(terms), "entries", len(docs))
	return nil
}

// collectEntries produces index entries in catalog position order so entry
// sequence numbers are stable across rebuilds of the same catalog.
func (b *Builder) collectEntries(ctx context.Context, terms []catalog.Term) []entry {
	var entries []entry
	seq := 0

	for _, term := range terms {
		syns := term.Synonyms
		if len(syns) == 0 {
			generated, err := b.synonyms.Generate(ctx, term)
			if err != nil {
				b.logger.Warn("synonym generation failed", "term", term.ID, "error", err)
			} else if len(generated) > 0 {
				if err := b.catalog.UpdateSynonyms(ctx, term.ID, generated); err != nil {
					b.logger.Warn("synonym persist failed", "term", term.ID, "error", err)
				}
				syns = generated
			}
		}

		entries = append(entries, entry{termID: term.ID, text: term.CombinedText(), seq: seq})
		seq++

		for _, synonym := range syns {
			entries = append(entries, entry{termID: term.ID, text: synonym, seq: seq})
			seq++
		}
	}

	return entries
}

func (b *Builder) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return b.embeddings.EmbedQuery(ctx, text)
	}
}
