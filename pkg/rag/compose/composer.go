package compose

import (
	"fmt"
	"sort"
	"strings"

	"civic-assistant-be/pkg/rag/retrieval"
)

const (
	defaultMaxChars        = 24000
	maxRecordsPerSection   = 25
	semanticFragmentsPerID = 2
)

// Section is one labeled source in the context block.
type Section struct {
	Source  retrieval.Source
	Header  string
	Records []retrieval.Record
	Summary string
}

// Block is the merged grounding for one query. It is built per query and never reused.
type Block struct {
	Sections []Section
	Text     string
}

func (b *Block) Empty() bool {
	return b == nil || len(b.Sections) == 0
}

// RecordCount returns how many records were included for source.
func (b *Block) RecordCount(source retrieval.Source) int {
	if b == nil {
		return 0
	}
	n := 0
	for _, s := range b.Sections {
		if s.Source == source {
			n += len(s.Records)
		}
	}
	return n
}

type Composer struct {
	maxChars int
}

func NewComposer(maxChars int) *Composer {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Composer{maxChars: maxChars}
}

// Compose orders results by source precedence, dedups records inside each
// section and keeps whole records only while they fit the character budget.
func (c *Composer) Compose(results ...*retrieval.Result) *Block {
	var present []*retrieval.Result
	for _, r := range results {
		if !r.Empty() {
			present = append(present, r)
		}
	}
	sort.SliceStable(present, func(i, j int) bool {
		return precedence(present[i].Source) < precedence(present[j].Source)
	})

	block := &Block{}
	var sb strings.Builder
	for _, r := range present {
		header := "### " + Header(r.Source) + "\n"
		used := sb.Len() + len(header)
		if used >= c.maxChars {
			break
		}

		section := Section{Source: r.Source, Header: Header(r.Source)}
		var body strings.Builder
		perID := make(map[string]int)
		allowed := 1
		if r.Source == retrieval.SourceSemantic {
			allowed = semanticFragmentsPerID
		}

		trimmed := false
		for i, rec := range r.Records {
			if len(section.Records) == maxRecordsPerSection {
				trimmed = i < len(r.Records)
				break
			}
			if perID[rec.ID] >= allowed {
				continue
			}
			piece := rec.Fragment + "\n\n"
			if used+body.Len()+len(piece) > c.maxChars {
				trimmed = true
				continue
			}
			perID[rec.ID]++
			section.Records = append(section.Records, rec)
			body.WriteString(piece)
		}
		if len(section.Records) == 0 {
			continue
		}
		if r.Summary != "" {
			summary := r.Summary
			if trimmed {
				// aggregates cover every retrieved record, not just the ones listed
				summary = fmt.Sprintf("%s (all %d retrieved records; %d listed above)", r.Summary, len(r.Records), len(section.Records))
			}
			line := "Summary: " + summary + "\n\n"
			if used+body.Len()+len(line) <= c.maxChars {
				section.Summary = summary
				body.WriteString(line)
			}
		}

		sb.WriteString(header)
		sb.WriteString(body.String())
		block.Sections = append(block.Sections, section)
	}

	block.Text = strings.TrimRight(sb.String(), "\n")
	return block
}

func precedence(s retrieval.Source) int {
	switch {
	case s.IsTiered():
		return 0
	case s == retrieval.SourceLive:
		return 1
	case s == retrieval.SourceSemantic:
		return 2
	case s == retrieval.SourceFullText:
		return 3
	case s.IsDomain():
		return 4
	}
	return 5
}

var domainHeaders = map[string]string{
	"budget":    "State budget lines",
	"contracts": "State contracts",
	"lobbying":  "Lobbying filings",
}

// Header is the human-readable section title for a source.
func Header(s retrieval.Source) string {
	switch s {
	case retrieval.SourceExactID:
		return "Bills matching the requested numbers"
	case retrieval.SourceKeyword:
		return "Bills matching the question's keywords"
	case retrieval.SourceSponsor:
		return "Bills from matching sponsors"
	case retrieval.SourceCommittee:
		return "Bills from matching committees"
	case retrieval.SourceLive:
		return "Current status from the legislature"
	case retrieval.SourceSemantic:
		return "Relevant bill excerpts"
	case retrieval.SourceFullText:
		return "Full bill text"
	}
	name := strings.TrimPrefix(string(s), "domain:")
	if h, ok := domainHeaders[name]; ok {
		return h
	}
	return "Data: " + name
}
