package retrieval

import (
	"context"
	"fmt"
	"strings"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/embedding"
)

type ChunkSearcher interface {
	SearchSimilarWithScore(ctx context.Context, embedding []float32, session int, threshold float64, limit int) ([]*entity.BillChunkMatch, error)
}

type SemanticConfig struct {
	Threshold          float64
	Limit              int
	FragmentsPerRecord int
}

func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{Threshold: 0.55, Limit: 15, FragmentsPerRecord: 2}
}

// SemanticRetriever embeds the question and pulls similar bill excerpts from the vector index.
type SemanticRetriever struct {
	embedder embedding.EmbeddingProvider
	chunks   ChunkSearcher
	cfg      SemanticConfig
	logger   logger.ILogger
}

func NewSemanticRetriever(embedder embedding.EmbeddingProvider, chunks ChunkSearcher, cfg SemanticConfig, log logger.ILogger) *SemanticRetriever {
	def := DefaultSemanticConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.FragmentsPerRecord <= 0 {
		cfg.FragmentsPerRecord = def.FragmentsPerRecord
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SemanticRetriever{embedder: embedder, chunks: chunks, cfg: cfg, logger: log}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, q Query, session int) *Result {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil
	}

	emb, err := r.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil || emb == nil || len(emb.Embedding.Values) == 0 {
		details := map[string]interface{}{}
		if err != nil {
			details["error"] = err.Error()
		}
		r.logger.Warn("SemanticRetriever", "embedding failed, continuing without excerpts", details)
		return nil
	}

	matches, err := r.chunks.SearchSimilarWithScore(ctx, emb.Embedding.Values, session, r.cfg.Threshold, r.cfg.Limit)
	if err != nil {
		r.logger.Warn("SemanticRetriever", "similarity search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	matches = CapPerRecord(matches, r.cfg.FragmentsPerRecord)
	if len(matches) == 0 {
		return nil
	}

	res := &Result{Source: SourceSemantic, Records: make([]Record, 0, len(matches))}
	for _, m := range matches {
		res.Records = append(res.Records, Record{
			ID:       m.BillNumber,
			Fragment: renderExcerpt(m),
		})
	}
	return res
}

// CapPerRecord keeps at most perRecord matches for each bill, preserving relevance order.
func CapPerRecord(matches []*entity.BillChunkMatch, perRecord int) []*entity.BillChunkMatch {
	seen := make(map[string]int, len(matches))
	out := make([]*entity.BillChunkMatch, 0, len(matches))
	for _, m := range matches {
		if seen[m.BillNumber] >= perRecord {
			continue
		}
		seen[m.BillNumber]++
		out = append(out, m)
	}
	return out
}

func renderExcerpt(m *entity.BillChunkMatch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", m.BillNumber, m.Title)
	if m.Status != "" {
		fmt.Fprintf(&sb, " [%s]", m.Status)
	}
	fmt.Fprintf(&sb, " (excerpt %d, relevance %.2f)\n", m.ChunkIndex+1, m.Similarity)
	sb.WriteString(strings.TrimSpace(m.Content))
	return sb.String()
}
