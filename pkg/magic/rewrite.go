package magic

import (
	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/value"
)

// callKey identifies one (predicate, adornment) specialization in the
// rewrite worklist.
type callKey struct {
	pred  string
	adorn adornment
}

// Rewrite produces the magic-set rewritten program for entry point p
// per §4.H. The returned program's Entry name is unchanged from p's
// (the entry point is always called all-free, which
// adornedPredicateName leaves unspecialized), so callers look up the
// same entry name in the rewritten program that they used in the
// original.
func Rewrite(p *program.Program) (*program.Program, error) {
	out := program.New(p.Entry)
	visited := make(map[callKey]bool)
	worklist := []callKey{{pred: p.Entry, adorn: allFree(p.Lookup(p.Entry).Arity)}}

	for len(worklist) > 0 {
		call := worklist[0]
		worklist = worklist[1:]
		if visited[call] {
			continue
		}
		visited[call] = true

		rs := p.Lookup(call.pred)
		if rs == nil {
			return nil, &program.UndefinedRuleError{RuleName: call.pred}
		}
		for _, r := range rs.Rules {
			rewritten, supRules, next := rewriteRule(r, call.adorn)
			if err := out.AddRule(rewritten); err != nil {
				return nil, err
			}
			for _, sup := range supRules {
				if err := out.AddRule(sup); err != nil {
					return nil, err
				}
			}
			for _, n := range next {
				if !visited[n] {
					worklist = append(worklist, n)
				}
			}
		}
	}
	return out, nil
}

// rewriteRule specializes one rule of an adorned predicate: it prefixes
// the body with the predicate's own magic atom (skipped when adorn is
// all-free, since such a magic atom is a vacuous always-true fact), and
// for every RuleApply atom it emits a supplementary rule populating the
// callee's magic predicate from the variables bound so far, per §4.H
// step 3.
func rewriteRule(r program.Rule, adorn adornment) (program.Rule, []program.Rule, []callKey) {
	headTerms := make([]value.Term, len(r.Head))
	for i, h := range r.Head {
		headTerms[i] = h.Term
	}

	bound := make(map[string]bool)
	for i, c := range adorn {
		if c == 'b' && headTerms[i].IsVar {
			bound[headTerms[i].Var] = true
		}
	}

	var newBody []program.Atom
	if !adorn.isAllFree() {
		magicArgs := boundPositions(headTerms, adorn)
		newBody = append(newBody, program.RuleApplyAtom(magicPredicateName(r.Name, adorn), magicArgs))
	}

	var supRules []program.Rule
	var next []callKey

	for _, atom := range r.Body {
		switch atom.Kind {
		case program.AtomAttrTriple, program.AtomPredicate:
			newBody = append(newBody, atom)
		case program.AtomRuleApply:
			calleeAdorn := computeAdornment(atom.Args, bound)
			next = append(next, callKey{pred: atom.RuleName, adorn: calleeAdorn})

			if !calleeAdorn.isAllFree() {
				supHead := boundPositions(atom.Args, calleeAdorn)
				supRules = append(supRules, program.Rule{
					Name: magicPredicateName(atom.RuleName, calleeAdorn),
					Head: termsToHead(supHead),
					Body: append([]program.Atom(nil), newBody...),
				})
				newBody = append(newBody, program.RuleApplyAtom(magicPredicateName(atom.RuleName, calleeAdorn), supHead))
			}

			newBody = append(newBody, program.Atom{
				Kind:     program.AtomRuleApply,
				RuleName: adornedPredicateName(atom.RuleName, calleeAdorn),
				Args:     atom.Args,
				Negated:  atom.Negated,
			})
		}
		for _, v := range atom.Vars() {
			bound[v] = true
		}
	}

	rewritten := program.Rule{
		Name:     adornedPredicateName(r.Name, adorn),
		Head:     r.Head,
		Body:     newBody,
		Validity: r.Validity,
	}
	return rewritten, supRules, next
}

func termsToHead(terms []value.Term) []program.HeadTerm {
	heads := make([]program.HeadTerm, len(terms))
	for i, t := range terms {
		heads[i] = program.HeadTerm{Term: t}
	}
	return heads
}
