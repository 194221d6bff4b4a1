package domain

import (
	"context"
	"fmt"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/repository/contract"
	"civic-assistant-be/pkg/rag/extract"
	"civic-assistant-be/pkg/rag/retrieval"
)

const (
	lobbyingLookupLimit = 15
	lobbyingMaxRecords  = 15
)

type LobbyingRetriever struct {
	repo   contract.LobbyingRepository
	logger logger.ILogger
}

func NewLobbyingRetriever(repo contract.LobbyingRepository, log logger.ILogger) *LobbyingRetriever {
	if log == nil {
		log = logger.Nop()
	}
	return &LobbyingRetriever{repo: repo, logger: log}
}

func (r *LobbyingRetriever) Name() string { return "lobbying" }

func (r *LobbyingRetriever) Gate(q retrieval.Query) bool {
	return extract.LobbyingGate.Match(q.Text)
}

func (r *LobbyingRetriever) Retrieve(ctx context.Context, q retrieval.Query) *retrieval.Result {
	terms := searchTerms(extract.LobbyingGate, q.Text)

	bySubject, err := r.repo.FindBySubjectTerms(ctx, terms, lobbyingLookupLimit)
	if err != nil {
		logLookupFailure(r.logger, r.Name(), "subject", err)
	}
	byParty, err := r.repo.FindByPartyTerms(ctx, terms, lobbyingLookupLimit)
	if err != nil {
		logLookupFailure(r.logger, r.Name(), "party", err)
	}

	filings := merge(
		func(f *entity.LobbyingFiling) string { return f.Id.String() },
		func(f *entity.LobbyingFiling) float64 { return f.Compensation },
		lobbyingMaxRecords, bySubject, byParty,
	)
	if len(filings) == 0 {
		return nil
	}

	res := &retrieval.Result{Source: retrieval.DomainSource(r.Name())}
	var total float64
	for _, f := range filings {
		total += f.Compensation
		res.Records = append(res.Records, retrieval.Record{ID: f.Id.String(), Fragment: renderFiling(f)})
	}
	res.Summary = fmt.Sprintf("%d filings reporting %s in compensation", len(filings), money(total))
	return res
}

func renderFiling(f *entity.LobbyingFiling) string {
	line := fmt.Sprintf("%d: %s for %s, %s", f.Year, f.Lobbyist, f.Client, money(f.Compensation))
	if f.Subject != "" {
		line += "\nSubject: " + f.Subject
	}
	return line
}
