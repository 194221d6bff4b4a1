package citation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/rag/extract"
)

const MaxBillCitations = 10

type BillResolver interface {
	FindByNumbers(ctx context.Context, session int, numbers []string, limit int) ([]*entity.Bill, error)
}

// Input is a frozen answer plus what is needed to cite it.
type Input struct {
	Query             string
	Text              string
	Streamed          bool
	ProviderCitations []llm.Citation
}

type Extraction struct {
	Content             string
	Reasoning           string
	ReasoningInProgress bool
	Citations           []entity.BillCitation
	WebCitations        []entity.WebCitation
}

type Extractor struct {
	bills  BillResolver
	logger logger.ILogger
}

func NewExtractor(bills BillResolver, log logger.ILogger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{bills: bills, logger: log}
}

// Extract runs only on finalized text. Reasoning is split first so bill
// numbers are taken from the visible answer and the question.
func (e *Extractor) Extract(ctx context.Context, in Input) Extraction {
	answer, reasoning, inProgress := SplitReasoning(in.Text)
	out := Extraction{
		Content:             answer,
		Reasoning:           reasoning,
		ReasoningInProgress: inProgress,
	}

	out.Citations = e.billCitations(ctx, in.Query+"\n"+answer)

	if !in.Streamed && len(in.ProviderCitations) > 0 {
		out.WebCitations = fromProvider(in.ProviderCitations)
	} else {
		out.WebCitations = FromMarkers(answer)
	}
	return out
}

func (e *Extractor) billCitations(ctx context.Context, text string) []entity.BillCitation {
	ids := extract.Identifiers(text)
	if len(ids) == 0 || e.bills == nil {
		return nil
	}

	// any session; the newest row per number comes first
	bills, err := e.bills.FindByNumbers(ctx, 0, ids, MaxBillCitations*3)
	if err != nil {
		e.logger.Warn("CitationExtractor", "bill citation lookup failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	byNumber := make(map[string]*entity.Bill, len(bills))
	for _, b := range bills {
		if _, ok := byNumber[b.Number]; !ok {
			byNumber[b.Number] = b
		}
	}

	var out []entity.BillCitation
	for _, id := range ids {
		b, ok := byNumber[id]
		if !ok {
			continue
		}
		out = append(out, entity.BillCitation{
			Identifier:  b.Number,
			Title:       b.Title,
			Status:      b.Status,
			Committee:   b.Committee,
			SponsorName: b.SponsorName,
		})
		if len(out) == MaxBillCitations {
			break
		}
	}
	return out
}

func fromProvider(citations []llm.Citation) []entity.WebCitation {
	out := make([]entity.WebCitation, 0, len(citations))
	for _, c := range citations {
		out = append(out, entity.WebCitation{Number: c.Number, URL: c.URL, Title: c.Title})
	}
	return out
}

var markerPattern = regexp.MustCompile(`\[(\d{1,3})\]`)

// FromMarkers builds numbered citations from the [n] markers in text. Streamed
// answers carry no source metadata, so only the numbers are known.
func FromMarkers(text string) []entity.WebCitation {
	seen := make(map[int]struct{})
	var numbers []int
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var out []entity.WebCitation
	for _, n := range numbers {
		out = append(out, entity.WebCitation{Number: n, Title: fmt.Sprintf("Source %d", n)})
	}
	return out
}
