package prompt

import (
	"fmt"
	"strings"

	"civic-assistant-be/internal/constant"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/rag/compose"
	"civic-assistant-be/pkg/rag/retrieval"
)

// ComposedPrompt is built once per query and not changed afterwards.
type ComposedPrompt struct {
	SystemText string
	Persona    string
	Messages   []llm.Message
}

// Request converts the prompt to the provider-agnostic request shape.
func (p *ComposedPrompt) Request() llm.Prompt {
	return llm.Prompt{System: p.SystemText, Messages: p.Messages}
}

type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the system text in a fixed order: safety preamble, persona,
// capabilities notice, context and, only when there is context, the grounding
// footer. Later sections are more specific and win on conflicts.
func (a *Assembler) Assemble(q retrieval.Query, block *compose.Block) *ComposedPrompt {
	persona := a.persona(q)

	var system strings.Builder
	a.writeSection(&system, constant.SafetyPreamble)
	a.writeSection(&system, persona)
	a.writeSection(&system, constant.CapabilitiesNotice)
	if !block.Empty() {
		a.writeContext(&system, block)
		a.writeSection(&system, constant.GroundingFooter)
	}

	return &ComposedPrompt{
		SystemText: strings.TrimRight(system.String(), "\n"),
		Persona:    persona,
		Messages:   a.messages(q),
	}
}

// persona is the caller's text verbatim when supplied; it replaces the default.
func (a *Assembler) persona(q retrieval.Query) string {
	if strings.TrimSpace(q.SystemContext) != "" {
		return q.SystemContext
	}
	if fragment := entityFragment(q.Entity); fragment != "" {
		return constant.DefaultPersona + "\n\n" + fragment
	}
	return constant.DefaultPersona
}

func entityFragment(hint *retrieval.EntityHint) string {
	if hint == nil || hint.Name == "" {
		return ""
	}
	switch hint.Kind {
	case retrieval.EntityBill:
		return fmt.Sprintf(constant.BillEntityPrompt, hint.Name, hint.Name)
	case retrieval.EntityMember:
		return fmt.Sprintf(constant.MemberEntityPrompt, hint.Name)
	case retrieval.EntityCommittee:
		return fmt.Sprintf(constant.CommitteeEntityPrompt, hint.Name)
	}
	return ""
}

func (a *Assembler) writeSection(sb *strings.Builder, text string) {
	sb.WriteString(text)
	sb.WriteString("\n\n")
}

func (a *Assembler) writeContext(sb *strings.Builder, block *compose.Block) {
	sb.WriteString("<context>\n")
	sb.WriteString(block.Text)
	sb.WriteString("\n</context>\n\n")
}

func (a *Assembler) messages(q retrieval.Query) []llm.Message {
	out := make([]llm.Message, 0, len(q.History)+1)
	for _, turn := range q.History {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		role := llm.RoleUser
		if turn.Role == llm.RoleAssistant || turn.Role == "model" {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: turn.Text})
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: q.Text})
}
