package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/halewood/mediasearch/internal/model"
	appErr "github.com/halewood/mediasearch/internal/pkg/errors"
)

// RecordRepo persists embedded records and serves approximate
// nearest-neighbor search over their vectors.
type RecordRepo struct {
	db *sqlx.DB
}

func NewRecordRepo(db *sqlx.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Exists reports whether a record with the given deterministic id is already
// stored. This point lookup is the per-chunk idempotence check.
func (r *RecordRepo) Exists(ctx context.Context, recordID string) (bool, error) {
	where := map[string]interface{}{
		"record_id": recordID,
	}
	sqlStr, args, err := builder.BuildSelect("archive_records", where, []string{"1"})
	if err != nil {
		return false, err
	}
	var one int
	err = r.db.QueryRowContext(ctx, r.db.Rebind(sqlStr), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasDocumentRecord reports whether any record of one of the given kinds
// exists for the item. Document media dedup whole items, not single files.
func (r *RecordRepo) HasDocumentRecord(ctx context.Context, itemID string, kinds []string) (bool, error) {
	where := map[string]interface{}{
		"item_id": itemID,
		"kind in": kinds,
		"_limit":  []uint{1},
	}
	sqlStr, args, err := builder.BuildSelect("archive_records", where, []string{"1"})
	if err != nil {
		return false, err
	}
	var one int
	err = r.db.QueryRowContext(ctx, r.db.Rebind(sqlStr), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert writes a record unless its id is already present. The primary key
// is the authoritative dedup guard; a conflict reports inserted=false
// without error so concurrent writers of the same key stay idempotent.
func (r *RecordRepo) Insert(ctx context.Context, rec *model.EmbeddedRecord) (bool, error) {
	const query = `
		INSERT INTO archive_records
			(record_id, item_id, title, subtitle, scope_note, source_file_names,
			 source_urls, kind, start_time, end_time, transcript, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (record_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.RecordID,
		rec.ItemID,
		rec.Title,
		rec.Subtitle,
		rec.ScopeNote,
		pq.Array(rec.SourceFileNames),
		pq.Array(rec.SourceURLs),
		rec.Kind,
		rec.StartTime,
		rec.EndTime,
		rec.Transcript,
		pgvector.NewVector(rec.Embedding),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Get fetches one record by id, without its embedding.
func (r *RecordRepo) Get(ctx context.Context, recordID string) (*model.EmbeddedRecord, error) {
	const query = `
		SELECT record_id, item_id, title, subtitle, scope_note, source_file_names,
		       source_urls, kind, start_time, end_time, transcript
		FROM archive_records
		WHERE record_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, recordID)
	var rec model.EmbeddedRecord
	var names, urls pq.StringArray
	err := row.Scan(&rec.RecordID, &rec.ItemID, &rec.Title, &rec.Subtitle, &rec.ScopeNote,
		&names, &urls, &rec.Kind, &rec.StartTime, &rec.EndTime, &rec.Transcript)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.SourceFileNames = names
	rec.SourceURLs = urls
	return &rec, nil
}

// Search runs cosine ANN search over the embedding column. The candidate
// pool bounds the index traversal (hnsw.ef_search); limit caps the returned
// rows. Results carry a similarity score of 1 - cosine distance, descending.
func (r *RecordRepo) Search(ctx context.Context, queryVec []float32, candidates, limit int) ([]model.SearchResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// SET does not take bind parameters; candidates is an int under our control.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", candidates)); err != nil {
		return nil, err
	}
	const query = `
		SELECT record_id, item_id, title, kind, source_file_names, source_urls,
		       start_time, transcript, 1 - (embedding <=> $1) AS score
		FROM archive_records
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := tx.QueryContext(ctx, query, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.SearchResult
	for rows.Next() {
		var res model.SearchResult
		var names, urls pq.StringArray
		if err := rows.Scan(&res.RecordID, &res.ItemID, &res.Title, &res.Kind,
			&names, &urls, &res.StartTime, &res.Transcript, &res.Score); err != nil {
			return nil, err
		}
		res.SourceFileNames = names
		res.SourceURLs = urls
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, tx.Commit()
}
