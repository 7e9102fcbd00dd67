package storage

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

var _ ports.SubscriberRepository = (*Store)(nil)

// DigestSubscribers lists verified users whose preferences enable the digest.
func (s *Store) DigestSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	query, args, err := s.dialect.builder.
		Select(
			"u.id", "u.email", "COALESCE(u.display_name, '')",
			s.dialect.listColumn("up.language"),
			s.dialect.listColumn("up.categories"),
			"up.email_digest",
		).
		From("users u").
		Join("user_preferences up ON u.id = up.user_id").
		Where(sq.Eq{"u.is_verified": true, "up.email_digest": true}).
		OrderBy("u.email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscribers query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var (
			id, email, name     string
			languages, category string
			enabled             bool
		)
		if err := rows.Scan(&id, &email, &name, &languages, &category, &enabled); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, domain.Subscriber{
			Email:       email,
			DisplayName: name,
			Preference:  domain.NormalizePreference(id, splitList(languages), splitList(category), enabled),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SaveSubscriber creates or replaces a user with its preferences. The profile
// subsystem owns these tables; this exists for seeding and local runs.
func (s *Store) SaveSubscriber(ctx context.Context, sub domain.Subscriber, verified bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	userID := sub.Preference.UserID
	userSQL, userArgs, err := s.dialect.builder.
		Insert("users").
		Columns("id", "email", "display_name", "is_verified").
		Values(userID, sub.Email, nullable(sub.DisplayName), verified).
		Suffix("ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, is_verified = EXCLUDED.is_verified").
		ToSql()
	if err != nil {
		return fmt.Errorf("build user upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, userSQL, userArgs...); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	langs := make([]string, 0, len(sub.Preference.Languages))
	for _, l := range sub.Preference.Languages {
		langs = append(langs, string(l))
	}
	cats := make([]string, 0, len(sub.Preference.Categories))
	for _, c := range sub.Preference.Categories {
		cats = append(cats, string(c))
	}

	prefSQL, prefArgs, err := s.dialect.builder.
		Insert("user_preferences").
		Columns("user_id", "language", "categories", "email_digest").
		Values(userID, s.listValue(langs), s.listValue(cats), sub.Preference.EmailDigestEnabled).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET language = EXCLUDED.language, categories = EXCLUDED.categories, email_digest = EXCLUDED.email_digest").
		ToSql()
	if err != nil {
		return fmt.Errorf("build preference upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, prefSQL, prefArgs...); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subscriber: %w", err)
	}
	return nil
}

// listValue encodes a list for the dialect's column type.
func (s *Store) listValue(items []string) interface{} {
	if s.dialect.name == DriverPostgres {
		return sq.Expr("string_to_array(?, ',')", strings.Join(items, ","))
	}
	return strings.Join(items, ",")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
