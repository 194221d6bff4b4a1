package retrieval

import (
	"context"
	"strings"
	"testing"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/pkg/openleg"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanWaterAct() *entity.Bill {
	return &entity.Bill{
		Id:          uuid.New(),
		Number:      "S256",
		SessionYear: 2025,
		Title:       "Clean Water Act",
		Committee:   "Environmental Conservation",
		Status:      "In Committee",
	}
}

func TestTieredRetrieverExactIDShortCircuits(t *testing.T) {
	bill := cleanWaterAct()
	store := newFakeBillStore(bill)
	store.keyword = []*entity.Bill{{Number: "A1"}}
	store.counts = map[uuid.UUID]entity.SponsorCounts{bill.Id: {Sponsors: 1, Cosponsors: 4}}

	res := NewTieredRetriever(store, 10, nil).Retrieve(context.Background(), Query{Text: "Tell me about housing bills like S256"}, 2025)

	require.NotNil(t, res)
	assert.Equal(t, SourceExactID, res.Source)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "S256", res.Records[0].ID)
	assert.Contains(t, res.Records[0].Fragment, "Sponsors: 1, co-sponsors: 4")

	assert.Equal(t, 1, store.Calls("numbers"))
	assert.Zero(t, store.Calls("keyword"))
	assert.Zero(t, store.Calls("sponsor"))
	assert.Zero(t, store.Calls("committee"))
}

func TestTieredRetrieverFallsThrough(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(s *fakeBillStore)
		want      Source
		wantCalls map[string]int
	}{
		{
			name:      "keyword tier",
			setup:     func(s *fakeBillStore) { s.keyword = []*entity.Bill{{Number: "A10"}} },
			want:      SourceKeyword,
			wantCalls: map[string]int{"keyword": 1, "sponsor": 0, "committee": 0},
		},
		{
			name:      "sponsor tier",
			setup:     func(s *fakeBillStore) { s.sponsor = []*entity.Bill{{Number: "A10"}} },
			want:      SourceSponsor,
			wantCalls: map[string]int{"keyword": 1, "sponsor": 1, "committee": 0},
		},
		{
			name: "keyword failure falls through to committee",
			setup: func(s *fakeBillStore) {
				s.keywordErr = errBoom
				s.committee = []*entity.Bill{{Number: "S5"}}
			},
			want:      SourceCommittee,
			wantCalls: map[string]int{"keyword": 1, "sponsor": 1, "committee": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeBillStore()
			tt.setup(store)

			res := NewTieredRetriever(store, 10, nil).Retrieve(context.Background(), Query{Text: "rent stabilization programs"}, 2025)

			require.NotNil(t, res)
			assert.Equal(t, tt.want, res.Source)
			assert.Zero(t, store.Calls("numbers"))
			for name, n := range tt.wantCalls {
				assert.Equal(t, n, store.Calls(name), name)
			}
		})
	}
}

func TestTieredRetrieverEmpty(t *testing.T) {
	store := newFakeBillStore()
	res := NewTieredRetriever(store, 10, nil).Retrieve(context.Background(), Query{Text: "hi"}, 2025)
	assert.True(t, res.Empty())
	assert.Zero(t, store.Calls("keyword"))
}

func TestTieredRetrieverUsesEntityHint(t *testing.T) {
	store := newFakeBillStore(cleanWaterAct())
	q := Query{Text: "who sponsored it?", Entity: &EntityHint{Kind: EntityBill, Name: "s00256"}}

	res := NewTieredRetriever(store, 10, nil).Retrieve(context.Background(), q, 2025)

	require.NotNil(t, res)
	assert.Equal(t, SourceExactID, res.Source)
}

func TestCapPerRecord(t *testing.T) {
	matches := []*entity.BillChunkMatch{
		match("S1", 0, 0.9), match("S1", 1, 0.88), match("A2", 0, 0.85),
		match("S1", 2, 0.8), match("S1", 3, 0.7), match("A2", 1, 0.6), match("A2", 2, 0.58),
	}

	got := CapPerRecord(matches, 2)

	var order []string
	for _, m := range got {
		order = append(order, m.BillNumber)
	}
	assert.Equal(t, []string{"S1", "S1", "A2", "A2"}, order)
	assert.Equal(t, 1, got[1].ChunkIndex)
	assert.Equal(t, 1, got[3].ChunkIndex)
}

func TestSemanticRetriever(t *testing.T) {
	chunks := &fakeChunks{matches: []*entity.BillChunkMatch{
		match("S1", 0, 0.9), match("S1", 1, 0.8), match("S1", 2, 0.7),
	}}

	res := NewSemanticRetriever(&fakeEmbedder{}, chunks, SemanticConfig{}, nil).
		Retrieve(context.Background(), Query{Text: "water pollution"}, 2025)

	require.NotNil(t, res)
	assert.Equal(t, SourceSemantic, res.Source)
	assert.Len(t, res.Records, 2)
	assert.Contains(t, res.Records[0].Fragment, "relevance 0.90")
}

func TestSemanticRetrieverEmbeddingFailure(t *testing.T) {
	chunks := &fakeChunks{}

	res := NewSemanticRetriever(&fakeEmbedder{err: errBoom}, chunks, SemanticConfig{}, nil).
		Retrieve(context.Background(), Query{Text: "water pollution"}, 2025)

	assert.Nil(t, res)
	assert.Zero(t, chunks.calls)
}

func TestFullTextRetriever(t *testing.T) {
	bill := cleanWaterAct()
	bill.FullText = "Section 1. This act shall be known as the clean water act."
	store := newFakeBillStore(bill)

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"identifier in question", Query{Text: "Read me S256"}, true},
		{
			"identifier in history",
			Query{Text: "what does section 1 say?", History: []Turn{
				{Role: "user", Text: "Tell me about S256"},
				{Role: "assistant", Text: "It covers water."},
			}},
			true,
		},
		{"no identifier anywhere", Query{Text: "what does section 1 say?"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewFullTextRetriever(store, 0, nil).Retrieve(context.Background(), tt.query, 2025)
			if !tt.want {
				assert.True(t, res.Empty())
				return
			}
			require.NotNil(t, res)
			assert.Equal(t, SourceFullText, res.Source)
			assert.Contains(t, res.Records[0].Fragment, "Section 1.")
		})
	}
}

func TestClip(t *testing.T) {
	text := strings.Repeat("word ", 100)
	got := clip(text, 52)
	assert.True(t, strings.HasSuffix(got, truncationMarker))
	assert.LessOrEqual(t, len(strings.TrimSuffix(got, truncationMarker)), 52)
	assert.Equal(t, "short", clip("short", 52))

	multibyte := strings.Repeat("é", 40)
	assert.True(t, strings.HasSuffix(clip(multibyte, 25), truncationMarker))
}

func TestLiveRetriever(t *testing.T) {
	live := &fakeLive{
		bills: map[string]*openleg.Bill{
			"S256": {PrintNo: "S256", Session: 2025, Title: "Clean Water Act", SameAs: []string{"A1234"}},
		},
		found: []*openleg.Bill{{PrintNo: "A10", Session: 2025, Title: "Tenant Act"}},
	}
	r := NewLiveRetriever(live, nil)

	res := r.Retrieve(context.Background(), Query{Text: "Status of S256 and S9?"}, 2025)
	require.NotNil(t, res)
	assert.Equal(t, SourceLive, res.Source)
	require.Len(t, res.Records, 1)
	assert.Contains(t, res.Records[0].Fragment, "Same as (other chamber): A1234")

	res = r.Retrieve(context.Background(), Query{Text: "tenant protection"}, 2025)
	require.NotNil(t, res)
	assert.Equal(t, "A10", res.Records[0].ID)
	assert.Equal(t, []string{"tenant protection"}, live.terms)
}

func TestQueryRecentTurns(t *testing.T) {
	q := Query{History: []Turn{
		{Role: "user", Text: "u1"}, {Role: "assistant", Text: "a1"},
		{Role: "user", Text: "u2"}, {Role: "assistant", Text: "a2"},
	}}
	assert.Equal(t, []string{"a2", "u2", "a1"}, q.RecentTurns(3))
	assert.Equal(t, []string{"u2", "u1"}, q.RecentUserTurns(3))
}
