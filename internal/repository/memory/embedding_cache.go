package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"civic-assistant-be/pkg/embedding"

	"github.com/patrickmn/go-cache"
)

// CachedEmbeddingProvider memoizes embeddings by task type and text. Errors are not cached.
type CachedEmbeddingProvider struct {
	next  embedding.EmbeddingProvider
	cache *cache.Cache
}

var _ embedding.EmbeddingProvider = &CachedEmbeddingProvider{}

func NewCachedEmbeddingProvider(next embedding.EmbeddingProvider, ttl, cleanupInterval time.Duration) *CachedEmbeddingProvider {
	return &CachedEmbeddingProvider{next: next, cache: cache.New(ttl, cleanupInterval)}
}

func (p *CachedEmbeddingProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	key := hex.EncodeToString(sum[:])

	if x, found := p.cache.Get(key); found {
		return x.(*embedding.EmbeddingResponse), nil
	}

	res, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, res, cache.DefaultExpiration)
	return res, nil
}
