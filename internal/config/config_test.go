package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 0.55, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 15, cfg.Retrieval.SemanticLimit)
	assert.Equal(t, 2, cfg.Retrieval.FragmentsPerRecord)
	assert.Equal(t, 10, cfg.Retrieval.TierLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEGISLATIVE_SESSION", "2023")
	t.Setenv("SIMILARITY_THRESHOLD", "0.7")
	t.Setenv("RETRIEVER_TIMEOUT", "3s")
	t.Setenv("DB_DEBUG", "true")
	t.Setenv("TIER_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2023, cfg.Retrieval.Session)
	assert.Equal(t, 0.7, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 3*time.Second, cfg.Retrieval.RetrieverTimeout)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, 10, cfg.Retrieval.TierLimit)
}
