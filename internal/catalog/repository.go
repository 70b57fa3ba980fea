package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/termstudio/taxon/pkg/pagination"
	"github.com/termstudio/taxon/pkg/query"
	"github.com/termstudio/taxon/pkg/repository"
	"github.com/termstudio/taxon/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a catalog repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "catalog"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64, refresher Refresher) *Handler {
	return NewHandler(r, refresher, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Term], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Definition")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count terms: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	terms, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTerm)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}

	result := pagination.NewPageResult(terms, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Term, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTerm)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) All(ctx context.Context) ([]Term, error) {
	q, args := query.NewBuilder(projection, defaultSort).Build()

	terms, err := repository.QueryMany(ctx, r.db, q, args, scanTerm)
	if err != nil {
		return nil, fmt.Errorf("query all terms: %w", err)
	}
	return terms, nil
}

func (r *repo) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{ByCDM: map[string]int{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE jsonb_array_length(synonyms) > 0)
		FROM terms`,
	).Scan(&stats.Total, &stats.WithSynonyms)
	if err != nil {
		return nil, fmt.Errorf("count terms: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(cdm, 'unassigned'), COUNT(*)
		FROM terms
		GROUP BY 1
		ORDER BY 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("count terms by cdm: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cdm   string
			count int
		)
		if err := rows.Scan(&cdm, &count); err != nil {
			return nil, fmt.Errorf("scan cdm count: %w", err)
		}
		stats.ByCDM[cdm] = count
	}

	return stats, rows.Err()
}

// upsertSQL keeps the original position on reload and clears generated
// synonyms only when the name or definition changed.
const upsertSQL = `
	INSERT INTO terms (id, name, definition, cdm)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		definition = EXCLUDED.definition,
		cdm = EXCLUDED.cdm,
		synonyms = CASE
			WHEN terms.name = EXCLUDED.name AND terms.definition = EXCLUDED.definition
			THEN terms.synonyms
			ELSE '[]'::jsonb
		END,
		updated_at = now()`

func (r *repo) Load(ctx context.Context, data []byte, filename string) (*LoadResult, error) {
	cmds, rejected, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, ErrEmptyCatalog
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, cmd := range cmds {
			if _, err := tx.ExecContext(ctx, upsertSQL, cmd.ID, cmd.Name, cmd.Definition, cmd.CDM); err != nil {
				return struct{}{}, fmt.Errorf("upsert term %s: %w", cmd.ID, err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	key := buildStorageKey(filename)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), "text/csv"); err != nil {
		r.logger.Warn("catalog archive failed", "key", key, "error", err)
		key = ""
	}

	r.logger.Info("catalog loaded", "terms", len(cmds), "rejected", len(rejected), "key", key)

	return &LoadResult{
		Loaded:     len(cmds),
		Rejected:   rejected,
		StorageKey: key,
	}, nil
}

func (r *repo) UpdateSynonyms(ctx context.Context, id string, synonyms []string) error {
	if synonyms == nil {
		synonyms = []string{}
	}

	encoded, err := json.Marshal(synonyms)
	if err != nil {
		return fmt.Errorf("encode synonyms: %w", err)
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"UPDATE terms SET synonyms = $1, updated_at = now() WHERE id = $2",
			encoded, id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func buildStorageKey(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == "" {
		name = "catalog.csv"
	}
	return fmt.Sprintf(
		"catalogs/%s/%s",
		time.Now().UTC().Format("20060102T150405Z"),
		url.PathEscape(name),
	)
}
