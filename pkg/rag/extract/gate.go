package extract

import "regexp"

// Gate decides whether a domain retriever should run for a turn.
type Gate struct {
	pattern *regexp.Regexp
}

func NewGate(expr string) Gate {
	return Gate{pattern: regexp.MustCompile(expr)}
}

// Match reports whether any of the texts contains a gating term.
func (g Gate) Match(texts ...string) bool {
	for _, t := range texts {
		if g.pattern.MatchString(t) {
			return true
		}
	}
	return false
}

var (
	BudgetGate = NewGate(`(?i)\b(budgets?|spend(ing|s)?|spent|appropriat\w*|fund(s|ed|ing)?|fiscal|revenue|costs?|dollars?|money|financ\w*|allocat\w*|expenditures?)\b`)

	ContractGate = NewGate(`(?i)\b(contracts?|contractors?|vendors?|procure\w*|purchas\w*|bids?|award(s|ed)?|suppliers?)\b`)

	LobbyingGate = NewGate(`(?i)\b(lobby\w*|influence\w*|clients?)\b`)
)

// Strip removes gating terms from text so they are not searched for as content words.
func (g Gate) Strip(text string) string {
	return g.pattern.ReplaceAllString(text, " ")
}
