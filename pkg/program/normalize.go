package program

// Normalize checks every rule in p for safety: every head variable must
// be bound by at least one positive, non-predicate body atom. It is run
// once per compiled program, before stratification, per §4.G.
func Normalize(p *Program) error {
	for _, rs := range p.Rules {
		for _, r := range rs.Rules {
			if err := checkSafety(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkSafety(r Rule) error {
	bound := boundVars(r.Body)
	for _, h := range r.Head {
		if h.Term.IsVar && !bound[h.Term.Var] {
			return &UnsafeUnboundVarsError{RuleName: r.Name, Var: h.Term.Var}
		}
	}
	return nil
}

// boundVars returns the set of variables at least one positive
// AttrTriple or RuleApply atom in body binds. Predicate atoms never
// bind a variable; negated atoms don't either, since a negated atom can
// only restrict values already bound elsewhere (§9's resolution of the
// Predicate/negation Open Question).
func boundVars(body []Atom) map[string]bool {
	bound := make(map[string]bool)
	for _, a := range body {
		if a.Negated {
			continue
		}
		switch a.Kind {
		case AtomAttrTriple, AtomRuleApply:
			for _, v := range a.Vars() {
				bound[v] = true
			}
		}
	}
	return bound
}
