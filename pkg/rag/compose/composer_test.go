package compose

import (
	"strings"
	"testing"

	"civic-assistant-be/pkg/rag/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, fragment string) retrieval.Record {
	return retrieval.Record{ID: id, Fragment: fragment}
}

func TestComposeOrdersByPrecedence(t *testing.T) {
	results := []*retrieval.Result{
		{Source: retrieval.DomainSource("budget"), Records: []retrieval.Record{rec("b1", "budget line")}, Summary: "1 budget line"},
		{Source: retrieval.SourceFullText, Records: []retrieval.Record{rec("S1", "full text")}},
		nil,
		{Source: retrieval.SourceSemantic, Records: []retrieval.Record{rec("S1", "excerpt")}},
		{Source: retrieval.SourceLive, Records: []retrieval.Record{rec("S1", "live")}},
		{Source: retrieval.SourceKeyword, Records: []retrieval.Record{rec("S1", "bill")}},
		{Source: retrieval.SourceCommittee},
	}

	block := NewComposer(0).Compose(results...)

	var order []retrieval.Source
	for _, s := range block.Sections {
		order = append(order, s.Source)
	}
	assert.Equal(t, []retrieval.Source{
		retrieval.SourceKeyword, retrieval.SourceLive, retrieval.SourceSemantic,
		retrieval.SourceFullText, retrieval.DomainSource("budget"),
	}, order)
	assert.True(t, strings.HasPrefix(block.Text, "### Bills matching the question's keywords\nbill"))
	assert.Contains(t, block.Text, "### State budget lines\nbudget line\n\nSummary: 1 budget line")
}

func TestComposeSemanticCapPerRecord(t *testing.T) {
	res := &retrieval.Result{Source: retrieval.SourceSemantic, Records: []retrieval.Record{
		rec("S1", "one"), rec("S1", "two"), rec("A2", "three"), rec("S1", "four"), rec("S1", "five"),
	}}

	block := NewComposer(0).Compose(res)

	require.Len(t, block.Sections, 1)
	assert.Equal(t, 3, block.RecordCount(retrieval.SourceSemantic))
	assert.NotContains(t, block.Text, "four")
	assert.NotContains(t, block.Text, "five")
}

func TestComposeDedupsStructuredRecords(t *testing.T) {
	res := &retrieval.Result{Source: retrieval.SourceExactID, Records: []retrieval.Record{rec("S1", "first"), rec("S1", "again")}}
	block := NewComposer(0).Compose(res)
	assert.Equal(t, 1, block.RecordCount(retrieval.SourceExactID))
}

func TestComposeKeepsWholeRecords(t *testing.T) {
	long := strings.Repeat("x", 200)
	res := &retrieval.Result{Source: retrieval.SourceKeyword, Records: []retrieval.Record{
		rec("S1", "short one"), rec("S2", long), rec("S3", "short two"),
	}}

	block := NewComposer(100).Compose(res)

	assert.Equal(t, 2, block.RecordCount(retrieval.SourceKeyword))
	assert.NotContains(t, block.Text, "xxx")
	assert.Contains(t, block.Text, "short two")
	assert.LessOrEqual(t, len(block.Text), 100)
}

func TestComposeLabelsSummaryOfTrimmedSection(t *testing.T) {
	res := &retrieval.Result{
		Source: retrieval.DomainSource("budget"),
		Records: []retrieval.Record{
			rec("b1", "line a"), rec("b2", strings.Repeat("x", 200)), rec("b3", "line c"),
		},
		Summary: "3 budget lines totalling $9",
	}

	block := NewComposer(150).Compose(res)

	require.Len(t, block.Sections, 1)
	assert.Equal(t, 2, block.RecordCount(retrieval.DomainSource("budget")))
	assert.Equal(t, "3 budget lines totalling $9 (all 3 retrieved records; 2 listed above)", block.Sections[0].Summary)
	assert.True(t, strings.HasSuffix(block.Text, "Summary: 3 budget lines totalling $9 (all 3 retrieved records; 2 listed above)"))
	assert.LessOrEqual(t, len(block.Text), 150)
}

func TestComposeEmpty(t *testing.T) {
	block := NewComposer(0).Compose(nil, &retrieval.Result{Source: retrieval.SourceSemantic})
	assert.True(t, block.Empty())
	assert.Empty(t, block.Text)
}
