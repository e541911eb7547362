package query

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/catalog"
	"github.com/cuemby/faktum/pkg/log"
	"github.com/cuemby/faktum/pkg/metrics"
	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// evaluateProgram runs p, already normalized and magic-rewritten, to its
// fixed point stratum by stratum and returns a ruleTables map resolving
// every ruleset name to the scratch table holding its rows. The scratch
// store is simplified relative to a textbook semi-naive engine: each
// iteration re-evaluates a rule's whole body against the rule tables'
// current contents and merges the result by content-addressed key,
// rather than rewriting each rule into delta-only variants per recursive
// atom. Both reach the same fixed point — Datalog's least model does not
// depend on how it's approached — so this trades the delta-join
// optimization's performance for a much smaller evaluator, a trade-off
// recorded in DESIGN.md.
func evaluateProgram(cat *catalog.Catalog, scratch *storage.Scratch, scratchTx storage.Tx, ctx *txEvalContext, p *program.Program, vld value.Validity) (map[string]ruleInfo, error) {
	strata, err := program.Stratify(p)
	if err != nil {
		return nil, fmt.Errorf("query: stratify rewritten program: %w", err)
	}

	ruleTables := make(map[string]ruleInfo, len(p.Rules))
	for i, stratum := range strata {
		slog := log.WithStratum(i)
		for _, name := range stratum.Rules {
			rs := p.Lookup(name)
			if rs == nil {
				return nil, &CompilationError{Kind: UndefinedRule, RuleName: name}
			}
			ruleTables[name] = ruleInfo{table: scratch.CreateTable(), arity: rs.Arity}
		}

		for iteration := 0; ; iteration++ {
			changed := false
			for _, name := range stratum.Rules {
				rs := p.Lookup(name)
				for _, rule := range rs.Rules {
					plan, err := compileRuleBody(cat, vld, ruleTables, rule)
					if err != nil {
						return nil, err
					}
					rows, err := plan.Rows(ctx)
					if err != nil {
						return nil, fmt.Errorf("query: evaluate rule %q: %w", name, err)
					}
					metrics.ScratchRowsMaterialized.Observe(float64(len(rows)))
					added, err := writeRows(scratchTx, ruleTables[name].table, rows)
					if err != nil {
						return nil, err
					}
					if added > 0 {
						changed = true
					}
				}
			}
			metrics.SemiNaiveIterationsTotal.Inc()
			slog.Debug().Int("iteration", iteration).Bool("changed", changed).Msg("semi-naive iteration")
			if !changed {
				break
			}
		}
		metrics.StrataEvaluatedTotal.Inc()
	}
	return ruleTables, nil
}
