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
	contractLookupLimit = 25
	contractMaxRecords  = 25
)

type ContractRetriever struct {
	repo   contract.ContractRepository
	logger logger.ILogger
}

func NewContractRetriever(repo contract.ContractRepository, log logger.ILogger) *ContractRetriever {
	if log == nil {
		log = logger.Nop()
	}
	return &ContractRetriever{repo: repo, logger: log}
}

func (r *ContractRetriever) Name() string { return "contracts" }

// Gate also looks at recent user turns: follow-ups like "which of those was biggest?"
// keep the procurement context alive.
func (r *ContractRetriever) Gate(q retrieval.Query) bool {
	return extract.ContractGate.Match(append([]string{q.Text}, q.RecentUserTurns(historyGateTurns)...)...)
}

func (r *ContractRetriever) Retrieve(ctx context.Context, q retrieval.Query) *retrieval.Result {
	// when only an earlier turn matched the gate, search that turn's terms
	source := q.Text
	if !extract.ContractGate.Match(q.Text) {
		for _, turn := range q.RecentUserTurns(historyGateTurns) {
			if extract.ContractGate.Match(turn) {
				source = turn
				break
			}
		}
	}
	terms := searchTerms(extract.ContractGate, source)

	byCategory, err := r.repo.FindByCategoryTerms(ctx, terms, contractLookupLimit)
	if err != nil {
		logLookupFailure(r.logger, r.Name(), "category", err)
	}
	byVendor, err := r.repo.FindByVendorTerms(ctx, terms, contractLookupLimit)
	if err != nil {
		logLookupFailure(r.logger, r.Name(), "vendor", err)
	}

	contracts := merge(
		func(c *entity.Contract) string { return c.Id.String() },
		func(c *entity.Contract) float64 { return c.Amount },
		contractMaxRecords, byCategory, byVendor,
	)
	if len(contracts) == 0 {
		return nil
	}

	res := &retrieval.Result{Source: retrieval.DomainSource(r.Name())}
	var total float64
	vendors := make(map[string]struct{})
	for _, c := range contracts {
		total += c.Amount
		vendors[c.Vendor] = struct{}{}
		res.Records = append(res.Records, retrieval.Record{ID: c.Id.String(), Fragment: renderContract(c)})
	}
	res.Summary = fmt.Sprintf("%d contracts across %d vendors totalling %s", len(contracts), len(vendors), money(total))
	return res
}

func renderContract(c *entity.Contract) string {
	line := fmt.Sprintf("%s with %s: %s", c.Vendor, c.Agency, money(c.Amount))
	if c.Category != "" {
		line += " [" + c.Category + "]"
	}
	if c.StartDate != nil {
		line += ", starting " + c.StartDate.Format("2006-01-02")
	}
	if c.Description != "" {
		line += "\n" + c.Description
	}
	return line
}
