package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"civic-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatReturnsCitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)

		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"Yes [1][2]"}}],
			"search_results":[{"title":"Senate","url":"https://nysenate.gov"},{"url":"https://example.org"}]
		}`))
	}))
	defer srv.Close()

	p := NewPerplexityProvider("key", srv.URL, "", 0, 0)
	got, err := p.Chat(context.Background(), llm.Prompt{System: "sys", Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}}})

	require.NoError(t, err)
	assert.Equal(t, "Yes [1][2]", got.Text)
	assert.Equal(t, []llm.Citation{
		{Number: 1, URL: "https://nysenate.gov", Title: "Senate"},
		{Number: 2, URL: "https://example.org", Title: "https://example.org"},
	}, got.Citations)
	assert.True(t, p.PrefersSingleShot())
}

func TestChatLegacyCitationList(t *testing.T) {
	got := citations(chatResponse{Citations: []string{"https://a", "https://b"}})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].Number)
}

func TestChatProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	_, err := NewPerplexityProvider("key", srv.URL, "", 0, 0).Chat(context.Background(), llm.Prompt{})

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.Status)
	assert.Equal(t, "rate limited", perr.Body)
}
