package program

// Stratum is one maximal set of mutually recursive rule names, to be
// evaluated together as a semi-naive fixed point before any stratum
// depending on it is attempted.
type Stratum struct {
	Rules []string
}

// Stratify builds the rule dependency graph and partitions it into
// strata in dependency order, per §4.G. It fails with
// *UndefinedRuleError if a RuleApply names a rule with no ruleset, and
// with *StratificationError if a negative edge (from a negated
// RuleApply) lies inside a strongly connected component.
func Stratify(p *Program) ([]Stratum, error) {
	graph := make(map[string][]edge)
	for name, rs := range p.Rules {
		if _, ok := graph[name]; !ok {
			graph[name] = nil
		}
		for _, r := range rs.Rules {
			for _, a := range r.Body {
				if a.Kind != AtomRuleApply {
					continue
				}
				if p.Lookup(a.RuleName) == nil {
					return nil, &UndefinedRuleError{RuleName: a.RuleName}
				}
				graph[name] = append(graph[name], edge{to: a.RuleName, negative: a.Negated})
			}
		}
	}

	components := tarjan(graph)
	sccIndex := make(map[string]int, len(graph))
	for i, comp := range components {
		for _, n := range comp {
			sccIndex[n] = i
		}
	}

	for name, edges := range graph {
		for _, e := range edges {
			if e.negative && sccIndex[name] == sccIndex[e.to] {
				return nil, &StratificationError{Cycle: components[sccIndex[name]]}
			}
		}
	}

	strata := make([]Stratum, len(components))
	for i, comp := range components {
		strata[i] = Stratum{Rules: comp}
	}
	return strata, nil
}
