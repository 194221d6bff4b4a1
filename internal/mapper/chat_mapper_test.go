package mapper

import (
	"testing"

	"civic-assistant-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessageCitationsSurviveModelMapping(t *testing.T) {
	m := NewChatMapper()
	in := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		Role:          "assistant",
		Content:       "S256 is...",
		Citations: []entity.BillCitation{
			{Identifier: "S256", Title: "Clean Water Act", Committee: "Environmental Conservation"},
		},
		State: "finalized",
	}

	model, err := m.ChatMessageToModel(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"identifier":"S256","title":"Clean Water Act","status":"","committee":"Environmental Conservation"}]`, string(model.Citations))

	out := m.ChatMessageToEntity(model)
	assert.Equal(t, in.Citations, out.Citations)
	assert.Empty(t, out.WebCitations)
}
