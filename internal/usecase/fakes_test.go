package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

type fakeSource struct {
	candidates []domain.Candidate
	err        error
	gotBatch   domain.BatchID
	started    chan struct{}
	block      chan struct{}
}

func (f *fakeSource) FetchBatch(_ context.Context, batchID domain.BatchID) ([]domain.Candidate, error) {
	f.gotBatch = batchID
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	return f.candidates, f.err
}

type fakeRepo struct {
	mu        sync.Mutex
	existing  map[string]bool
	lookups   int
	inserted  []domain.ArticleRecord
	insertErr error
	lookupErr error
	batch     []domain.ArticleRecord
}

func (f *fakeRepo) ExistingURLs(_ context.Context, urls []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	out := map[string]bool{}
	for _, u := range urls {
		if f.existing[u] {
			out[u] = true
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertBatch(_ context.Context, records []domain.ArticleRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	n := 0
	for _, r := range records {
		if f.existing[r.SourceURL] {
			continue
		}
		if f.existing == nil {
			f.existing = map[string]bool{}
		}
		f.existing[r.SourceURL] = true
		f.inserted = append(f.inserted, r)
		n++
	}
	return n, nil
}

func (f *fakeRepo) ListByBatch(_ context.Context, batchID domain.BatchID) ([]domain.ArticleRecord, error) {
	var out []domain.ArticleRecord
	for _, r := range f.batch {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSubscribers struct {
	subs []domain.Subscriber
	err  error
}

func (f *fakeSubscribers) DigestSubscribers(context.Context) ([]domain.Subscriber, error) {
	return f.subs, f.err
}

// scriptedChat answers from a queue; the last entry repeats.
type scriptedChat struct {
	mu      sync.Mutex
	replies []chatReply
	calls   int
	users   []string
}

type chatReply struct {
	text string
	err  error
}

func (s *scriptedChat) Complete(_ context.Context, _, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
	idx := s.calls
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	s.calls++
	return s.replies[idx].text, s.replies[idx].err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.Message
	fail map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg ports.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[msg.To] {
		return errors.New("smtp 550")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) byRecipient() map[string]ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]ports.Message{}
	for _, msg := range m.sent {
		out[msg.To] = msg
	}
	return out
}

type tokenRenderer struct{}

func (tokenRenderer) Render(name string, vars map[string]string) (string, error) {
	return "[" + name + "|" + vars["DISPLAY_NAME"] + "|" + vars["EDITION"] + "|" + vars["DATE_FORMATTED"] + "]" + vars["CATEGORY_SECTIONS"], nil
}

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func candidate(url string) domain.Candidate {
	return domain.Candidate{
		SourceURL:  url,
		TitleEn:    "Title of " + url,
		SourceName: "Example",
		RawContent: "Raw content for " + url,
	}
}

const goodReply = `{"category":"ai-business","title_zh_tw":"標題","title_zh_cn":"标题","summary_en":"Summary.","summary_zh_tw":"摘要","summary_zh_cn":"摘要"}`
