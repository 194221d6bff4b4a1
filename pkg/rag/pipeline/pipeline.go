// Package pipeline turns one question into a complete, grounded prompt.
package pipeline

import (
	"context"
	"time"

	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/rag/compose"
	"civic-assistant-be/pkg/rag/domain"
	"civic-assistant-be/pkg/rag/extract"
	"civic-assistant-be/pkg/rag/prompt"
	"civic-assistant-be/pkg/rag/retrieval"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultRetrieverTimeout = 8 * time.Second

var tracer = otel.Tracer("rag")

// Prepared is everything the dispatcher needs. The prompt is complete: it is
// never changed once the provider call starts.
type Prepared struct {
	Prompt  *prompt.ComposedPrompt
	Block   *compose.Block
	Results []*retrieval.Result
}

type Pipeline struct {
	tiered   retrieval.Retriever
	semantic retrieval.Retriever
	fullText retrieval.Retriever
	live     retrieval.Retriever
	domains  []domain.Retriever

	composer  *compose.Composer
	assembler *prompt.Assembler
	session   int
	timeout   time.Duration
	logger    logger.ILogger
}

type Option func(*Pipeline)

// WithLive adds the remote legislature lookup. Without it the pipeline uses
// the local store only.
func WithLive(r retrieval.Retriever) Option {
	return func(p *Pipeline) { p.live = r }
}

func WithDomains(d ...domain.Retriever) Option {
	return func(p *Pipeline) { p.domains = append(p.domains, d...) }
}

func WithRetrieverTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l logger.ILogger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(tiered, semantic, fullText retrieval.Retriever, composer *compose.Composer, assembler *prompt.Assembler, session int, opts ...Option) *Pipeline {
	p := &Pipeline{
		tiered:    tiered,
		semantic:  semantic,
		fullText:  fullText,
		live:      retrieval.Nop,
		composer:  composer,
		assembler: assembler,
		session:   session,
		timeout:   defaultRetrieverTimeout,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type task struct {
	name string
	run  func(ctx context.Context) *retrieval.Result
}

// plan decides which retrievers run for this turn. Tiered, semantic and
// full-text always run. Live runs for single-shot turns or when the question
// names a bill. A domain retriever runs only when its gate matches.
func (p *Pipeline) plan(q retrieval.Query, streaming bool) []task {
	base := func(r retrieval.Retriever) func(ctx context.Context) *retrieval.Result {
		return func(ctx context.Context) *retrieval.Result { return r.Retrieve(ctx, q, p.session) }
	}

	tasks := []task{
		{"tiered", base(p.tiered)},
		{"semantic", base(p.semantic)},
		{"full-text", base(p.fullText)},
	}

	hasID := len(extract.Identifiers(q.Text)) > 0 || (q.Entity != nil && q.Entity.Kind == retrieval.EntityBill)
	if !streaming || hasID {
		tasks = append(tasks, task{"live", base(p.live)})
	}

	for _, d := range p.domains {
		if !d.Gate(q) {
			continue
		}
		tasks = append(tasks, task{"domain:" + d.Name(), func(ctx context.Context) *retrieval.Result {
			return d.Retrieve(ctx, q)
		}})
	}
	return tasks
}

// Prepare runs the planned retrievers concurrently, waits for all of them,
// then composes the context and assembles the prompt. A retriever that fails
// or times out only leaves its slot empty.
func (p *Pipeline) Prepare(ctx context.Context, q retrieval.Query, streaming bool) (*Prepared, error) {
	ctx, span := tracer.Start(ctx, "rag.prepare", trace.WithAttributes(
		attribute.Bool("rag.streaming", streaming),
		attribute.Int("rag.history_turns", len(q.History)),
	))
	defer span.End()

	tasks := p.plan(q, streaming)
	results := make([]*retrieval.Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, p.timeout)
			defer cancel()

			rctx, rspan := tracer.Start(rctx, "rag.retrieve", trace.WithSpanKind(trace.SpanKindInternal))
			defer rspan.End()

			started := time.Now()
			res := t.run(rctx)
			results[i] = res

			rspan.SetAttributes(
				attribute.String("rag.retriever", t.name),
				attribute.Int("rag.records", recordCount(res)),
			)
			p.logger.Debug("Pipeline", "retriever finished", map[string]interface{}{
				"retriever": t.name,
				"records":   recordCount(res),
				"elapsed":   time.Since(started).String(),
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	block := p.composer.Compose(results...)
	composed := p.assembler.Assemble(q, block)

	launched := make([]string, len(tasks))
	for i, t := range tasks {
		launched[i] = t.name
	}
	span.SetAttributes(
		attribute.StringSlice("rag.launched", launched),
		attribute.Int("rag.sections", len(block.Sections)),
	)
	p.logger.Info("Pipeline", "prompt prepared", map[string]interface{}{
		"launched":     launched,
		"sections":     len(block.Sections),
		"context_size": len(block.Text),
		"streaming":    streaming,
	})

	return &Prepared{Prompt: composed, Block: block, Results: results}, nil
}

func recordCount(r *retrieval.Result) int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}
