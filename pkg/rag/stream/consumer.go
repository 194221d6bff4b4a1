package stream

import (
	"context"
	"time"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/rag/citation"
)

type Extractor interface {
	Extract(ctx context.Context, in citation.Input) citation.Extraction
}

type Enricher interface {
	Related(ctx context.Context, cited []entity.BillCitation) []entity.BillCitation
}

// localExtractor splits reasoning and reads citation markers without a store.
type localExtractor struct{}

func (localExtractor) Extract(_ context.Context, in citation.Input) citation.Extraction {
	answer, reasoning, inProgress := citation.SplitReasoning(in.Text)
	return citation.Extraction{
		Content:             answer,
		Reasoning:           reasoning,
		ReasoningInProgress: inProgress,
		WebCitations:        citation.FromMarkers(answer),
	}
}

type nopEnricher struct{}

func (nopEnricher) Related(context.Context, []entity.BillCitation) []entity.BillCitation { return nil }

const postProcessTimeout = 10 * time.Second

// Consumer drives a Session through created, streaming and one of the terminal
// states, pushing every change to a Sink.
type Consumer struct {
	extractor Extractor
	enricher  Enricher
	logger    logger.ILogger
}

// NewConsumer accepts nil for any collaborator; the defaults do local-only
// extraction and no enrichment.
func NewConsumer(extractor Extractor, enricher Enricher, log logger.ILogger) *Consumer {
	if extractor == nil {
		extractor = localExtractor{}
	}
	if enricher == nil {
		enricher = nopEnricher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{extractor: extractor, enricher: enricher, logger: log}
}

// Consume renders resp into the session's message and returns it frozen.
func (c *Consumer) Consume(sess *Session, resp *llm.Response, query string, sink Sink) *Message {
	msg := sess.Message()
	msg.Provider = resp.Provider

	if !resp.Streamed {
		return c.consumeWhole(sess, resp, query, sink)
	}

	stream := resp.Stream
	// unblock a pending read as soon as the turn is cancelled
	stop := context.AfterFunc(sess.Context(), func() { _ = stream.Close() })
	defer stop()
	defer stream.Close()

	if !sess.transition(StateStreaming) {
		return msg
	}
	msg.State = StateStreaming

	for stream.Next() {
		if sess.Cancelled() {
			break
		}
		delta := stream.Delta()
		msg.Content = sess.append(delta)
		if err := sink.Send(Event{Type: EventDelta, MessageID: msg.ID, Delta: delta}); err != nil {
			sess.Cancel()
			break
		}
	}

	switch {
	case sess.Cancelled():
		c.cancelled(sess, sink)
	case stream.Err() != nil:
		c.fail(sess, stream.Err(), sink)
	default:
		c.finalize(sess, query, true, nil, sink)
	}
	return msg
}

func (c *Consumer) consumeWhole(sess *Session, resp *llm.Response, query string, sink Sink) *Message {
	msg := sess.Message()
	if sess.Cancelled() {
		c.cancelled(sess, sink)
		return msg
	}
	if resp.Completion == nil {
		c.fail(sess, errEmptyResponse, sink)
		return msg
	}

	sess.transition(StateStreaming)
	msg.Content = sess.append(resp.Completion.Text)
	if err := sink.Send(Event{Type: EventDelta, MessageID: msg.ID, Delta: resp.Completion.Text}); err != nil {
		sess.Cancel()
		c.cancelled(sess, sink)
		return msg
	}
	c.finalize(sess, query, false, resp.Completion.Citations, sink)
	return msg
}

// Fail ends a turn that broke before or instead of streaming. A cancelled
// session never gets the apology.
func (c *Consumer) Fail(sess *Session, err error, sink Sink) *Message {
	if sess.Cancelled() {
		c.cancelled(sess, sink)
	} else {
		c.fail(sess, err, sink)
	}
	return sess.Message()
}

func (c *Consumer) cancelled(sess *Session, sink Sink) {
	if !sess.transition(StateCancelled) {
		return
	}
	msg := sess.Message()
	msg.Content = sess.Accumulated()
	msg.IsStreaming = false
	msg.State = StateCancelled

	c.logger.Info("StreamConsumer", "turn cancelled", map[string]interface{}{
		"session": sess.ID,
		"chars":   len(msg.Content),
	})
	// the reader may already be gone
	_ = sink.Send(Event{Type: EventDone, MessageID: msg.ID, Message: msg})
}

func (c *Consumer) fail(sess *Session, err error, sink Sink) {
	if !sess.transition(StateErrored) {
		return
	}
	msg := sess.Message()
	msg.Content = Apology
	msg.IsStreaming = false
	msg.State = StateErrored

	c.logger.Error("StreamConsumer", "turn failed", map[string]interface{}{
		"session": sess.ID,
		"error":   err.Error(),
	})
	_ = sink.Send(Event{Type: EventError, MessageID: msg.ID, Message: msg, Error: Apology})
}

func (c *Consumer) finalize(sess *Session, query string, streamed bool, providerCitations []llm.Citation, sink Sink) {
	if !sess.transition(StateFinalized) {
		return
	}
	msg := sess.Message()
	msg.IsStreaming = false
	msg.State = StateFinalized

	// the answer is complete; post-processing outlives a late cancel
	ctx, cancel := context.WithTimeout(context.WithoutCancel(sess.Context()), postProcessTimeout)
	defer cancel()

	ex := c.extractor.Extract(ctx, citation.Input{
		Query:             query,
		Text:              sess.Accumulated(),
		Streamed:          streamed,
		ProviderCitations: providerCitations,
	})
	msg.Content = ex.Content
	msg.Reasoning = ex.Reasoning
	msg.ReasoningInProgress = ex.ReasoningInProgress
	msg.WebCitations = ex.WebCitations
	if ex.Citations != nil {
		msg.Citations = ex.Citations
	}

	if err := sink.Send(Event{Type: EventDone, MessageID: msg.ID, Message: msg}); err != nil {
		return
	}

	if related := c.enricher.Related(ctx, msg.Citations); len(related) > 0 {
		msg.Related = related
		_ = sink.Send(Event{Type: EventRelated, MessageID: msg.ID, Message: msg})
	}
}
