package retrieval

import (
	"context"
	"strings"
)

// Source tags where a result came from. The composer orders sections by it.
type Source string

const (
	SourceExactID   Source = "exact-id"
	SourceKeyword   Source = "keyword"
	SourceSponsor   Source = "sponsor"
	SourceCommittee Source = "committee"
	SourceLive      Source = "live"
	SourceSemantic  Source = "semantic"
	SourceFullText  Source = "full-text"

	domainPrefix = "domain:"
)

func DomainSource(name string) Source {
	return Source(domainPrefix + name)
}

// IsDomain reports whether s came from a domain retriever.
func (s Source) IsDomain() bool {
	return strings.HasPrefix(string(s), domainPrefix)
}

// IsTiered reports whether s is one of the structured-store tiers.
func (s Source) IsTiered() bool {
	switch s {
	case SourceExactID, SourceKeyword, SourceSponsor, SourceCommittee:
		return true
	}
	return false
}

// Record is one render-ready unit of grounding. ID is used for dedup.
type Record struct {
	ID       string
	Fragment string
}

type Result struct {
	Source  Source
	Records []Record
	Summary string
}

func (r *Result) Empty() bool {
	return r == nil || len(r.Records) == 0
}

type Turn struct {
	Role string
	Text string
}

type EntityKind string

const (
	EntityBill      EntityKind = "bill"
	EntityMember    EntityKind = "member"
	EntityCommittee EntityKind = "committee"
)

type EntityHint struct {
	Kind EntityKind
	Name string
}

// Query is one submitted question. It is not mutated after submission.
type Query struct {
	Text          string
	History       []Turn
	SystemContext string
	Entity        *EntityHint
}

// RecentTurns returns the text of the last n turns, newest first.
func (q Query) RecentTurns(n int) []string {
	return q.recent(n, "")
}

// RecentUserTurns returns the text of the last n user turns, newest first.
func (q Query) RecentUserTurns(n int) []string {
	return q.recent(n, "user")
}

func (q Query) recent(n int, role string) []string {
	var out []string
	for i := len(q.History) - 1; i >= 0 && len(out) < n; i-- {
		if role != "" && q.History[i].Role != role {
			continue
		}
		out = append(out, q.History[i].Text)
	}
	return out
}

// Retriever is implemented by every always-launched source of a turn.
type Retriever interface {
	Retrieve(ctx context.Context, q Query, session int) *Result
}

type nopRetriever struct{}

func (nopRetriever) Retrieve(context.Context, Query, int) *Result { return nil }

// Nop never returns anything. It is the default for optional sources.
var Nop Retriever = nopRetriever{}
