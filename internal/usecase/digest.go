package usecase

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// SectionLimit caps the articles rendered per category section.
	SectionLimit = 5

	digestTemplate   = "digest"
	digestDateLayout = "January 2, 2006"
)

// DigestConfig tunes dispatch pacing and link targets.
type DigestConfig struct {
	AppURL     string
	ChunkSize  int
	ChunkPause time.Duration
}

// DigestStats summarizes one dispatch.
type DigestStats struct {
	Subscribers int
	Sent        int
	Skipped     int
	Failed      int
}

// DigestDispatcher renders and sends the per-subscriber batch digest.
type DigestDispatcher struct {
	articles    ports.ArticleRepository
	subscribers ports.SubscriberRepository
	templates   ports.TemplateRenderer
	mailer      ports.Mailer
	cfg         DigestConfig
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// DigestDeps groups the dispatcher collaborators.
type DigestDeps struct {
	Articles    ports.ArticleRepository
	Subscribers ports.SubscriberRepository
	Templates   ports.TemplateRenderer
	Mailer      ports.Mailer
}

// NewDigestDispatcher builds a dispatcher; a non-positive chunk size sends
// everyone in one chunk.
func NewDigestDispatcher(deps DigestDeps, cfg DigestConfig, log *slog.Logger) *DigestDispatcher {
	return &DigestDispatcher{
		articles:    deps.Articles,
		subscribers: deps.Subscribers,
		templates:   deps.Templates,
		mailer:      deps.Mailer,
		cfg:         cfg,
		logger:      log,
		sleep:       sleepContext,
	}
}

// Dispatch emails every digest subscriber the batch articles they follow.
// Individual send failures are logged and counted, never returned.
func (d *DigestDispatcher) Dispatch(ctx context.Context, batchID domain.BatchID) (DigestStats, error) {
	var stats DigestStats

	day, _, err := batchID.Parse()
	if err != nil {
		return stats, err
	}
	edition, _ := batchID.Edition()
	date := day.Format(digestDateLayout)

	articles, err := d.articles.ListByBatch(ctx, batchID)
	if err != nil {
		return stats, fmt.Errorf("load batch articles: %w", err)
	}
	subscribers, err := d.subscribers.DigestSubscribers(ctx)
	if err != nil {
		return stats, fmt.Errorf("load subscribers: %w", err)
	}
	stats.Subscribers = len(subscribers)
	if len(subscribers) == 0 || len(articles) == 0 {
		stats.Skipped = len(subscribers)
		return stats, nil
	}

	chunkSize := d.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(subscribers)
	}

	var sent, skipped, failed int64
	for start := 0; start < len(subscribers); start += chunkSize {
		if start > 0 {
			if err := d.sleep(ctx, d.cfg.ChunkPause); err != nil {
				return stats, err
			}
		}
		end := start + chunkSize
		if end > len(subscribers) {
			end = len(subscribers)
		}

		var g errgroup.Group
		for _, sub := range subscribers[start:end] {
			sub := sub
			g.Go(func() error {
				ok, err := d.sendOne(ctx, sub, articles, batchID, edition, date)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					d.warn("digest send failed", "email", sub.Email, "error", err)
				case !ok:
					atomic.AddInt64(&skipped, 1)
				default:
					atomic.AddInt64(&sent, 1)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	stats.Sent = int(sent)
	stats.Skipped = int(skipped)
	stats.Failed = int(failed)
	d.info("digest dispatched", "batch", batchID, "subscribers", stats.Subscribers,
		"sent", stats.Sent, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// sendOne reports false when the subscriber follows none of the batch categories.
func (d *DigestDispatcher) sendOne(ctx context.Context, sub domain.Subscriber, articles []domain.ArticleRecord, batchID domain.BatchID, edition domain.Edition, date string) (bool, error) {
	lang := sub.Preference.PrimaryLanguage()
	sections := BuildSections(articles, sub.Preference.Categories, lang)
	if len(sections) == 0 {
		return false, nil
	}

	body, err := RenderSections(sections)
	if err != nil {
		return false, err
	}

	html, err := d.templates.Render(digestTemplate, map[string]string{
		"DISPLAY_NAME":      template.HTMLEscapeString(sub.Name()),
		"EDITION":           string(edition),
		"DATE_FORMATTED":    date,
		"CATEGORY_SECTIONS": body,
		"APP_URL":           d.cfg.AppURL,
		"UNSUB_TOKEN":       "",
	})
	if err != nil {
		return false, fmt.Errorf("render digest: %w", err)
	}

	err = d.mailer.Send(ctx, ports.Message{
		To:      sub.Email,
		Subject: domain.DigestSubject(lang, edition, date),
		HTML:    html,
	})
	if err != nil {
		return false, err
	}
	d.debug("digest sent", "email", sub.Email, "batch", batchID, "sections", len(sections))
	return true, nil
}

// Section is one category block of a digest.
type Section struct {
	Label    string
	Articles []SectionArticle
}

// SectionArticle is an article rendered in the subscriber's language.
type SectionArticle struct {
	Title    string
	Summary  string
	Source   string
	URL      string
	ReadMore string
}

// BuildSections groups articles by the subscriber's categories in preference
// order, keeping at most SectionLimit per section. Empty sections are dropped.
func BuildSections(articles []domain.ArticleRecord, categories []domain.Category, lang domain.Language) []Section {
	var sections []Section
	for _, cat := range categories {
		var items []SectionArticle
		for _, art := range articles {
			if art.Category != cat {
				continue
			}
			items = append(items, SectionArticle{
				Title:    art.Title(lang),
				Summary:  art.Summary(lang),
				Source:   art.SourceName,
				URL:      art.SourceURL,
				ReadMore: domain.ReadMoreLabel(lang),
			})
			if len(items) == SectionLimit {
				break
			}
		}
		if len(items) == 0 {
			continue
		}
		sections = append(sections, Section{Label: domain.CategoryLabel(cat, lang), Articles: items})
	}
	return sections
}

var sectionsTemplate = template.Must(template.New("sections").Parse(`{{range .}}
<div style="margin:24px 0;">
  <div style="font-size:11px;font-weight:700;letter-spacing:1.5px;text-transform:uppercase;color:#6366f1;border-bottom:1px solid #1e293b;padding-bottom:8px;margin-bottom:16px;">{{.Label}}</div>
  {{range .Articles}}<div class="article" style="background:#1e293b;border-radius:8px;padding:16px;margin-bottom:12px;">
    <div style="font-size:15px;font-weight:600;line-height:1.4;margin-bottom:8px;"><a class="title" href="{{.URL}}" style="color:#f1f5f9;text-decoration:none;">{{.Title}}</a></div>
    {{if .Summary}}<div class="summary" style="font-size:13px;color:#94a3b8;line-height:1.6;margin-bottom:10px;">{{.Summary}}</div>{{end}}
    {{if .Source}}<div class="source" style="font-size:11px;color:#64748b;">{{.Source}}</div>{{end}}
    <a href="{{.URL}}" style="display:inline-block;margin-top:8px;color:#6366f1;font-size:12px;text-decoration:none;">{{.ReadMore}}</a>
  </div>
  {{end}}
</div>{{end}}`))

// RenderSections produces the escaped HTML for the CATEGORY_SECTIONS token.
func RenderSections(sections []Section) (string, error) {
	var b strings.Builder
	if err := sectionsTemplate.Execute(&b, sections); err != nil {
		return "", fmt.Errorf("render sections: %w", err)
	}
	return b.String(), nil
}

func (d *DigestDispatcher) debug(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *DigestDispatcher) info(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *DigestDispatcher) warn(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
