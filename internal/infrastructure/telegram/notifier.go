package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier reports pipeline runs to a Telegram chat via the bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.RunReporter = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether both token and chat are configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.botToken != "" && n.chatID != ""
}

// ReportRun posts a one-line run summary.
func (n *Notifier) ReportRun(ctx context.Context, result domain.RunResult, runErr error) error {
	return n.send(ctx, FormatRun(result, runErr))
}

// FormatRun renders the operator message for a run.
func FormatRun(result domain.RunResult, runErr error) string {
	batch := result.BatchID.String()
	if batch == "" {
		batch = "unknown"
	}
	if runErr != nil {
		return fmt.Sprintf("❌ Batch %s failed: %s", batch, runErr.Error())
	}
	return fmt.Sprintf("✅ Batch %s complete: %d article(s) added", batch, result.ArticlesAdded)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if !n.Enabled() || n.client == nil {
		return errors.New("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.apiBase, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}
