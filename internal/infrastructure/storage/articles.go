package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const articlesTable = "news_articles"

// lookupChunk keeps IN lists under the sqlite host parameter limit.
const lookupChunk = 500

var _ ports.ArticleRepository = (*Store)(nil)

var articleColumns = []string{
	"source_url", "title_en", "title_zh_tw", "title_zh_cn",
	"summary_en", "summary_zh_tw", "summary_zh_cn",
	"source_name", "source_host", "image_url",
	"category", "published_at", "fetched_at", "batch_id",
}

// ExistingURLs returns the subset of urls already stored.
func (s *Store) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	for start := 0; start < len(urls); start += lookupChunk {
		end := start + lookupChunk
		if end > len(urls) {
			end = len(urls)
		}

		query, args, err := s.dialect.builder.
			Select("source_url").
			From(articlesTable).
			Where(sq.Eq{"source_url": urls[start:end]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build lookup: %w", err)
		}

		if err := s.collectURLs(ctx, query, args, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) collectURLs(ctx context.Context, query string, args []interface{}, into map[string]bool) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query existing: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return fmt.Errorf("scan url: %w", err)
		}
		into[u] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

// InsertBatch stores records in one transaction. Rows whose source_url is
// already present are skipped; the number of new rows is returned. Any
// statement failure rolls back the whole batch.
func (s *Store) InsertBatch(ctx context.Context, records []domain.ArticleRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	inserted := 0
	for _, rec := range records {
		n, err := s.insertOne(ctx, tx, rec)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert %s: %w", rec.SourceURL, err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return inserted, nil
}

func (s *Store) insertOne(ctx context.Context, tx *sql.Tx, rec domain.ArticleRecord) (int, error) {
	var published *time.Time
	if rec.PublishedAt != nil {
		t := rec.PublishedAt.UTC()
		published = &t
	}
	fetched := rec.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	query, args, err := s.dialect.builder.
		Insert(articlesTable).
		Columns(articleColumns...).
		Values(
			rec.SourceURL, rec.TitleEn, rec.TitleZhTW, rec.TitleZhCN,
			rec.SummaryEn, rec.SummaryZhTW, rec.SummaryZhCN,
			nullable(rec.SourceName), nullable(rec.SourceHost), nullable(rec.ImageURL),
			string(rec.Category), published, fetched.UTC(), string(rec.BatchID),
		).
		Suffix("ON CONFLICT (source_url) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

// ListByBatch returns the active articles of a batch, newest first.
func (s *Store) ListByBatch(ctx context.Context, batchID domain.BatchID) ([]domain.ArticleRecord, error) {
	query, args, err := s.dialect.builder.
		Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"batch_id": string(batchID), "is_active": true}).
		OrderBy("CASE WHEN published_at IS NULL THEN 1 ELSE 0 END", "published_at DESC", "fetched_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	defer rows.Close()

	var out []domain.ArticleRecord
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func scanArticle(rows *sql.Rows) (domain.ArticleRecord, error) {
	var (
		rec                                       domain.ArticleRecord
		titleTW, titleCN, sumEn, sumTW, sumCN     sql.NullString
		sourceName, sourceHost, imageURL, batchID sql.NullString
		category                                  string
		published                                 sql.NullTime
	)
	if err := rows.Scan(
		&rec.SourceURL, &rec.TitleEn, &titleTW, &titleCN,
		&sumEn, &sumTW, &sumCN,
		&sourceName, &sourceHost, &imageURL,
		&category, &published, &rec.FetchedAt, &batchID,
	); err != nil {
		return rec, fmt.Errorf("scan article: %w", err)
	}

	rec.TitleZhTW = stringPtr(titleTW)
	rec.TitleZhCN = stringPtr(titleCN)
	rec.SummaryEn = stringPtr(sumEn)
	rec.SummaryZhTW = stringPtr(sumTW)
	rec.SummaryZhCN = stringPtr(sumCN)
	rec.SourceName = sourceName.String
	rec.SourceHost = sourceHost.String
	rec.ImageURL = imageURL.String
	rec.Category = domain.CategoryOrDefault(category)
	rec.BatchID = domain.BatchID(batchID.String)
	if published.Valid {
		t := published.Time.UTC()
		rec.PublishedAt = &t
	}
	rec.FetchedAt = rec.FetchedAt.UTC()
	return rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
