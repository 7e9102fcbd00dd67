package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
)

const enrichedReply = `{"choices":[{"message":{"content":"` +
	"```json\\n{\\\"category\\\":\\\"ai-research\\\",\\\"title_zh_tw\\\":\\\"標題\\\",\\\"title_zh_cn\\\":\\\"标题\\\",\\\"summary_en\\\":\\\"Summary.\\\",\\\"summary_zh_tw\\\":\\\"摘要\\\",\\\"summary_zh_cn\\\":\\\"摘要\\\"}\\n```" +
	`"}}]}`

func TestRunOnceEndToEnd(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalArticles":2,"articles":[
			{"title":"Model launch","url":"https://techcrunch.com/2024/03/05/model-launch/","content":"A lab shipped a model.",
			 "source":{"name":"TechCrunch","url":"https://techcrunch.com"},"publishedAt":"2024-03-05T00:10:00Z"},
			{"title":"Policy update","url":"https://www.wired.com/story/policy-update-ai/","description":"Regulators met.",
			 "source":{"name":"WIRED","url":"https://www.wired.com"},"publishedAt":"2024-03-04T22:00:00Z"}
		]}`))
	}))
	defer search.Close()

	var completions int32
	chat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&completions, 1)
		_, _ = w.Write([]byte(enrichedReply))
	}))
	defer chat.Close()

	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"}
	cfg.Search.BaseURL = search.URL
	cfg.Search.APIKey = "gnews"
	cfg.Search.Queries = []string{"artificial intelligence"}
	cfg.Search.QueryDelay = 0
	cfg.LLM.Provider = config.ProviderOpenRouter
	cfg.LLM.Endpoint = chat.URL
	cfg.LLM.APIKey = "key"
	cfg.LLM.ItemDelay = 0

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	result, err := application.RunOnce(context.Background(), domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ArticlesAdded)
	assert.Equal(t, int32(2), atomic.LoadInt32(&completions))

	again, err := application.RunOnce(context.Background(), domain.TriggerManual)
	require.NoError(t, err)
	assert.Zero(t, again.ArticlesAdded)
	assert.Equal(t, int32(2), atomic.LoadInt32(&completions), "known urls must not be enriched again")
}
