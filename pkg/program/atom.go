// Package program implements the Datalog program intermediate
// representation: atoms, rules, rule sets, and the normalized program
// the compiler and magic-set rewriter operate over.
package program

import "github.com/cuemby/faktum/pkg/value"

// AtomKind tags which variant of atom a Atom holds.
type AtomKind int

const (
	AtomAttrTriple AtomKind = iota
	AtomRuleApply
	AtomPredicate
)

// Atom is one term of a rule body. Only the fields relevant to Kind are
// populated.
type Atom struct {
	Kind AtomKind

	// AttrTriple
	Attr   string
	Entity value.Term
	Value  value.Term

	// RuleApply
	RuleName string
	Args     []value.Term

	// Predicate
	Op    string
	Left  value.Term
	Right value.Term

	// Negated marks an AttrTriple or RuleApply atom as negated, the
	// extension point §3.4 reserves for negation. A negated RuleApply
	// contributes a negative edge during stratification (§4.G).
	Negated bool
}

// AttrTripleAtom constructs an AttrTriple atom.
func AttrTripleAtom(attr string, entity, value value.Term) Atom {
	return Atom{Kind: AtomAttrTriple, Attr: attr, Entity: entity, Value: value}
}

// RuleApplyAtom constructs a RuleApply atom.
func RuleApplyAtom(name string, args []value.Term) Atom {
	return Atom{Kind: AtomRuleApply, RuleName: name, Args: args}
}

// NegatedRuleApplyAtom constructs a negated RuleApply atom.
func NegatedRuleApplyAtom(name string, args []value.Term) Atom {
	return Atom{Kind: AtomRuleApply, RuleName: name, Args: args, Negated: true}
}

// PredicateAtom constructs a comparison/filter atom.
func PredicateAtom(op string, left, right value.Term) Atom {
	return Atom{Kind: AtomPredicate, Op: op, Left: left, Right: right}
}

// Vars returns every variable name this atom mentions, in atom order.
func (a Atom) Vars() []string {
	var out []string
	switch a.Kind {
	case AtomAttrTriple:
		if a.Entity.IsVar {
			out = append(out, a.Entity.Var)
		}
		if a.Value.IsVar {
			out = append(out, a.Value.Var)
		}
	case AtomRuleApply:
		for _, t := range a.Args {
			if t.IsVar {
				out = append(out, t.Var)
			}
		}
	case AtomPredicate:
		if a.Left.IsVar {
			out = append(out, a.Left.Var)
		}
		if a.Right.IsVar {
			out = append(out, a.Right.Var)
		}
	}
	return out
}
