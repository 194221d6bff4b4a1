package domain

import (
	"context"
	"fmt"
	"strings"

	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/repository/contract"
	"civic-assistant-be/pkg/rag/extract"
	"civic-assistant-be/pkg/rag/retrieval"
)

const (
	budgetLookupLimit = 20
	budgetMaxRecords  = 20
)

type BudgetRetriever struct {
	repo   contract.BudgetRepository
	logger logger.ILogger
}

func NewBudgetRetriever(repo contract.BudgetRepository, log logger.ILogger) *BudgetRetriever {
	if log == nil {
		log = logger.Nop()
	}
	return &BudgetRetriever{repo: repo, logger: log}
}

func (r *BudgetRetriever) Name() string { return "budget" }

func (r *BudgetRetriever) Gate(q retrieval.Query) bool {
	return extract.BudgetGate.Match(q.Text)
}

func (r *BudgetRetriever) Retrieve(ctx context.Context, q retrieval.Query) *retrieval.Result {
	terms := searchTerms(extract.BudgetGate, q.Text)

	byCategory, err := r.repo.FindByCategoryTerms(ctx, terms, budgetLookupLimit)
	if err != nil {
		logLookupFailure(r.logger, r.Name(), "category", err)
	}
	byAgency, err := r.repo.FindByAgencyTerms(ctx, terms, budgetLookupLimit)
	if err != nil {
		logLookupFailure(r.logger, r.Name(), "agency", err)
	}

	items := merge(
		func(b *entity.BudgetItem) string { return b.Id.String() },
		func(b *entity.BudgetItem) float64 { return b.Amount },
		budgetMaxRecords, byCategory, byAgency,
	)
	if len(items) == 0 {
		return nil
	}

	res := &retrieval.Result{Source: retrieval.DomainSource(r.Name())}
	var total float64
	for _, b := range items {
		total += b.Amount
		res.Records = append(res.Records, retrieval.Record{ID: b.Id.String(), Fragment: renderBudgetItem(b)})
	}
	res.Summary = fmt.Sprintf("%d budget lines totalling %s", len(items), money(total))
	return res
}

func renderBudgetItem(b *entity.BudgetItem) string {
	parts := []string{fmt.Sprintf("FY%d", b.FiscalYear), b.Agency}
	if b.Category != "" {
		parts = append(parts, b.Category)
	}
	if b.Program != "" {
		parts = append(parts, b.Program)
	}
	line := strings.Join(parts, " | ") + ": " + money(b.Amount)
	if b.Description != "" {
		line += "\n" + b.Description
	}
	return line
}
