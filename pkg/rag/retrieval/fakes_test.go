package retrieval

import (
	"context"
	"errors"
	"sync"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/pkg/embedding"
	"civic-assistant-be/pkg/openleg"

	"github.com/google/uuid"
)

type fakeBillStore struct {
	mu    sync.Mutex
	calls map[string]int

	byNumber   map[string]*entity.Bill
	keyword    []*entity.Bill
	sponsor    []*entity.Bill
	committee  []*entity.Bill
	keywordErr error
	counts     map[uuid.UUID]entity.SponsorCounts
}

func newFakeBillStore(bills ...*entity.Bill) *fakeBillStore {
	s := &fakeBillStore{calls: map[string]int{}, byNumber: map[string]*entity.Bill{}}
	for _, b := range bills {
		s.byNumber[b.Number] = b
	}
	return s
}

func (s *fakeBillStore) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func (s *fakeBillStore) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *fakeBillStore) FindByNumbers(_ context.Context, _ int, numbers []string, _ int) ([]*entity.Bill, error) {
	s.hit("numbers")
	var out []*entity.Bill
	for _, n := range numbers {
		if b, ok := s.byNumber[n]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBillStore) SearchByKeywords(context.Context, int, []string, int) ([]*entity.Bill, error) {
	s.hit("keyword")
	return s.keyword, s.keywordErr
}

func (s *fakeBillStore) FindBySponsorNames(context.Context, int, []string, int) ([]*entity.Bill, error) {
	s.hit("sponsor")
	return s.sponsor, nil
}

func (s *fakeBillStore) FindByCommitteeNames(context.Context, int, []string, int) ([]*entity.Bill, error) {
	s.hit("committee")
	return s.committee, nil
}

func (s *fakeBillStore) SponsorCounts(context.Context, []uuid.UUID) (map[uuid.UUID]entity.SponsorCounts, error) {
	s.hit("counts")
	return s.counts, nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Generate(context.Context, string, string) (*embedding.EmbeddingResponse, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}}}, nil
}

type fakeChunks struct {
	matches []*entity.BillChunkMatch
	calls   int
}

func (c *fakeChunks) SearchSimilarWithScore(context.Context, []float32, int, float64, int) ([]*entity.BillChunkMatch, error) {
	c.calls++
	return c.matches, nil
}

type fakeLive struct {
	bills map[string]*openleg.Bill
	found []*openleg.Bill
	terms []string
}

func (f *fakeLive) GetBill(_ context.Context, _ int, printNo string) (*openleg.Bill, error) {
	if b, ok := f.bills[printNo]; ok {
		return b, nil
	}
	return nil, openleg.ErrNotFound
}

func (f *fakeLive) SearchBills(_ context.Context, _ int, term string, _ int) ([]*openleg.Bill, error) {
	f.terms = append(f.terms, term)
	return f.found, nil
}

var errBoom = errors.New("boom")

func match(number string, index int, sim float64) *entity.BillChunkMatch {
	return &entity.BillChunkMatch{
		BillChunk:  entity.BillChunk{BillNumber: number, ChunkIndex: index, Content: "excerpt text"},
		Title:      "Title " + number,
		Similarity: sim,
	}
}
