package prompt

import (
	"strings"
	"testing"

	"civic-assistant-be/internal/constant"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/rag/compose"
	"civic-assistant-be/pkg/rag/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grounded() *compose.Block {
	return compose.NewComposer(0).Compose(&retrieval.Result{
		Source:  retrieval.SourceExactID,
		Records: []retrieval.Record{{ID: "S256", Fragment: "S256 (2025 session): Clean Water Act"}},
	})
}

func TestAssembleOrder(t *testing.T) {
	p := NewAssembler().Assemble(retrieval.Query{Text: "Tell me about S256"}, grounded())

	idx := func(s string) int { return strings.Index(p.SystemText, s) }
	require.NotEqual(t, -1, idx(constant.GroundingFooter))
	assert.Equal(t, 0, idx(constant.SafetyPreamble))
	assert.Less(t, idx(constant.SafetyPreamble), idx(constant.DefaultPersona))
	assert.Less(t, idx(constant.DefaultPersona), idx(constant.CapabilitiesNotice))
	assert.Less(t, idx(constant.CapabilitiesNotice), idx("<context>"))
	assert.Less(t, idx("Clean Water Act"), idx(constant.GroundingFooter))
	assert.True(t, strings.HasSuffix(p.SystemText, constant.GroundingFooter))
}

func TestAssembleWithoutContextHasNoFooter(t *testing.T) {
	p := NewAssembler().Assemble(retrieval.Query{Text: "hello"}, &compose.Block{})

	assert.NotContains(t, p.SystemText, "<context>")
	assert.NotContains(t, p.SystemText, constant.GroundingFooter)
	assert.Contains(t, p.SystemText, constant.CapabilitiesNotice)
}

func TestAssemblePersonaOverride(t *testing.T) {
	custom := "You are a budget analyst for the finance committee."
	q := retrieval.Query{
		Text:          "Tell me about S256",
		SystemContext: custom,
		Entity:        &retrieval.EntityHint{Kind: retrieval.EntityBill, Name: "S256"},
	}

	p := NewAssembler().Assemble(q, grounded())

	assert.Equal(t, custom, p.Persona)
	assert.NotContains(t, p.SystemText, constant.DefaultPersona)
	assert.Contains(t, p.SystemText, custom)
	assert.Contains(t, p.SystemText, constant.GroundingFooter)
}

func TestAssembleEntityFragment(t *testing.T) {
	q := retrieval.Query{Text: "who sponsors it?", Entity: &retrieval.EntityHint{Kind: retrieval.EntityCommittee, Name: "Health"}}

	p := NewAssembler().Assemble(q, nil)

	assert.True(t, strings.HasPrefix(p.Persona, constant.DefaultPersona))
	assert.Contains(t, p.Persona, "the Health committee")
}

func TestAssembleMessagesKeepHistorySeparate(t *testing.T) {
	q := retrieval.Query{
		Text: "and the sponsor?",
		History: []retrieval.Turn{
			{Role: "user", Text: "Tell me about S256"},
			{Role: "assistant", Text: "S256 is the Clean Water Act."},
			{Role: "assistant", Text: "  "},
		},
	}

	p := NewAssembler().Assemble(q, nil)

	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "Tell me about S256"},
		{Role: llm.RoleAssistant, Content: "S256 is the Clean Water Act."},
		{Role: llm.RoleUser, Content: "and the sponsor?"},
	}, p.Messages)
	assert.NotContains(t, p.SystemText, "S256 is the Clean Water Act.")

	req := p.Request()
	assert.Equal(t, p.SystemText, req.System)
	assert.Len(t, req.Messages, 3)
}
