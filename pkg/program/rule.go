package program

import "github.com/cuemby/faktum/pkg/value"

// HeadTerm is one position of a rule's head: a term, with an optional
// aggregation function name applied to it ("" if none). Aggregation is
// carried as a normalization-time concern (§4.G "flatten head
// aggregations"); the compiler and evaluator in this engine do not
// implement aggregate functions, since the distilled spec leaves them
// unspecified beyond that one phrase.
type HeadTerm struct {
	Term value.Term
	Agg  string
}

// Rule is one clause: a head bound to a body of atoms, sharing a
// ruleset name and arity with its siblings. Validity, when set, fixes
// the `at` timestamp every AttrTriple atom in the body reads at;
// otherwise the query's own validity is used.
type Rule struct {
	Name     string
	Head     []HeadTerm
	Body     []Atom
	Validity *value.Validity
}

// HeadVars returns the rule head's variable names in head order. Head
// terms may also be constants (the magic rewrite copies bound caller
// arguments into heads); a constant head term yields "" at its position.
func (r Rule) HeadVars() []string {
	vars := make([]string, len(r.Head))
	for i, h := range r.Head {
		vars[i] = h.Term.Var
	}
	return vars
}

// RuleSet is every rule sharing one head keyword and arity.
type RuleSet struct {
	Name  string
	Arity int
	Rules []Rule
}
