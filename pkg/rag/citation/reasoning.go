package citation

import "strings"

const (
	ReasoningStart = "<think>"
	ReasoningEnd   = "</think>"
)

// SplitReasoning separates a delimited reasoning segment from the visible answer.
// A start marker without its end marker means the stream stopped mid-thought:
// everything after the marker is returned as in-progress reasoning.
func SplitReasoning(text string) (answer, reasoning string, inProgress bool) {
	start := strings.Index(text, ReasoningStart)
	end := strings.Index(text, ReasoningEnd)

	switch {
	case start >= 0 && end > start:
		reasoning = text[start+len(ReasoningStart) : end]
		answer = text[:start] + text[end+len(ReasoningEnd):]
	case start >= 0:
		reasoning = text[start+len(ReasoningStart):]
		answer = text[:start]
		inProgress = true
	case end >= 0:
		// some providers drop the opening marker
		reasoning = text[:end]
		answer = text[end+len(ReasoningEnd):]
	default:
		return strings.TrimSpace(text), "", false
	}
	return strings.TrimSpace(answer), strings.TrimSpace(reasoning), inProgress
}
