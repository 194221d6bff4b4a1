package citation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBills struct {
	bills   []*entity.Bill
	err     error
	queried []string
	exclude []string
}

func (f *fakeBills) FindByNumbers(_ context.Context, _ int, numbers []string, _ int) ([]*entity.Bill, error) {
	f.queried = numbers
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.Bill
	for _, b := range f.bills {
		for _, n := range numbers {
			if b.Number == n {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (f *fakeBills) FindRelatedByCommittee(_ context.Context, committee string, exclude []string, _ int) ([]*entity.Bill, error) {
	f.exclude = exclude
	var out []*entity.Bill
	for _, b := range f.bills {
		if b.Committee == committee {
			out = append(out, b)
		}
	}
	return out, f.err
}

func TestSplitReasoning(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantAnswer    string
		wantReasoning string
		wantProgress  bool
	}{
		{"no markers", " plain answer ", "plain answer", "", false},
		{"complete pair", "<think>check S256</think>S256 is a water bill.", "S256 is a water bill.", "check S256", false},
		{"cut off mid thought", "<think>first I will look", "", "first I will look", true},
		{"end marker only", "weighing options</think>The answer.", "The answer.", "weighing options", false},
		{"text before pair", "Note: <think>hmm</think> done", "Note:  done", "hmm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, reasoning, inProgress := SplitReasoning(tt.text)
			assert.Equal(t, tt.wantAnswer, answer)
			assert.Equal(t, tt.wantReasoning, reasoning)
			assert.Equal(t, tt.wantProgress, inProgress)
		})
	}
}

func TestFromMarkers(t *testing.T) {
	got := FromMarkers("Funding rose [2]. Per the report [1][2], and see [10]. Not [0].")
	assert.Equal(t, []entity.WebCitation{
		{Number: 1, Title: "Source 1"},
		{Number: 2, Title: "Source 2"},
		{Number: 10, Title: "Source 10"},
	}, got)
	assert.Nil(t, FromMarkers("no markers"))
}

func TestExtractBillCitations(t *testing.T) {
	bills := &fakeBills{bills: []*entity.Bill{
		{Number: "S256", SessionYear: 2025, Title: "Clean Water Act", Committee: "Environmental Conservation", Status: "In Committee"},
		{Number: "S256", SessionYear: 2023, Title: "Old Clean Water Act"},
		{Number: "A1234", Title: "Companion"},
	}}
	e := NewExtractor(bills, nil)

	got := e.Extract(context.Background(), Input{
		Query:    "Tell me about S256",
		Text:     "<think>look up s00256</think>S256 is... its companion is A1234, unlike S999.",
		Streamed: true,
	})

	assert.Equal(t, "S256 is... its companion is A1234, unlike S999.", got.Content)
	assert.Equal(t, "look up s00256", got.Reasoning)
	assert.Equal(t, []string{"S256", "A1234", "S999"}, bills.queried)
	require.Len(t, got.Citations, 2)
	assert.Equal(t, entity.BillCitation{
		Identifier: "S256", Title: "Clean Water Act", Status: "In Committee", Committee: "Environmental Conservation",
	}, got.Citations[0])
	assert.Equal(t, "A1234", got.Citations[1].Identifier)
}

func TestExtractCapsCitations(t *testing.T) {
	bills := &fakeBills{}
	text := ""
	for i := 1; i <= 12; i++ {
		n := fmt.Sprintf("S%d", i)
		bills.bills = append(bills.bills, &entity.Bill{Number: n})
		text += n + " "
	}

	got := NewExtractor(bills, nil).Extract(context.Background(), Input{Text: text, Streamed: true})
	assert.Len(t, got.Citations, MaxBillCitations)
	assert.Equal(t, "S10", got.Citations[9].Identifier)
}

func TestExtractWebCitations(t *testing.T) {
	e := NewExtractor(&fakeBills{}, nil)
	provider := []llm.Citation{{Number: 1, URL: "https://nysenate.gov", Title: "Senate"}}

	single := e.Extract(context.Background(), Input{Text: "Yes [1].", ProviderCitations: provider})
	assert.Equal(t, []entity.WebCitation{{Number: 1, URL: "https://nysenate.gov", Title: "Senate"}}, single.WebCitations)

	streamed := e.Extract(context.Background(), Input{Text: "Yes [1].", Streamed: true, ProviderCitations: provider})
	assert.Equal(t, []entity.WebCitation{{Number: 1, Title: "Source 1"}}, streamed.WebCitations)
}

func TestExtractLookupFailureIsSilent(t *testing.T) {
	got := NewExtractor(&fakeBills{err: errors.New("db down")}, nil).
		Extract(context.Background(), Input{Text: "S256 passed."})
	assert.Empty(t, got.Citations)
	assert.Equal(t, "S256 passed.", got.Content)
}

func TestRelatedEnricher(t *testing.T) {
	bills := &fakeBills{bills: []*entity.Bill{{Number: "S300", Committee: "Environmental Conservation"}}}
	r := NewRelatedEnricher(bills, 0, nil)

	got := r.Related(context.Background(), []entity.BillCitation{
		{Identifier: "S256", Committee: "Environmental Conservation"},
		{Identifier: "A1234"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "S300", got[0].Identifier)
	assert.Equal(t, []string{"S256", "A1234"}, bills.exclude)
	assert.Nil(t, r.Related(context.Background(), nil))
}
