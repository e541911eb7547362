// Package magic implements the magic-set rewrite: given a normalized,
// stratified Program and its entry predicate, it produces a new Program
// in which every intensional predicate is specialized per the
// bound/free argument pattern it is actually called with, and prefixed
// by a magic predicate restricting it to the argument tuples the query
// actually needs — the classical technique that turns the ancestor/dan
// example (§8 S4) into an O(chain length) computation instead of an
// O(n²) one.
package magic

import (
	"strings"

	"github.com/cuemby/faktum/pkg/value"
)

// adornment is a string of 'b'/'f' characters, one per argument
// position, recording whether that position is bound (a constant, or a
// variable already bound by the time the predicate is called) or free.
type adornment string

func allFree(n int) adornment {
	return adornment(strings.Repeat("f", n))
}

func (a adornment) isAllFree() bool {
	for _, c := range a {
		if c != 'f' {
			return false
		}
	}
	return true
}

// computeAdornment derives the adornment a RuleApply atom's arguments
// get, given the set of variables already bound at that point in a
// rule body's left-to-right binding propagation (§4.G, §4.H step 1).
// Constants always count as bound.
func computeAdornment(args []value.Term, bound map[string]bool) adornment {
	b := make([]byte, len(args))
	for i, a := range args {
		if !a.IsVar || bound[a.Var] {
			b[i] = 'b'
		} else {
			b[i] = 'f'
		}
	}
	return adornment(b)
}

// boundPositions returns the subsequence of terms at bound positions in
// adorn, in argument order — the arguments a magic predicate's
// extension is keyed on.
func boundPositions(terms []value.Term, adorn adornment) []value.Term {
	var out []value.Term
	for i, c := range adorn {
		if c == 'b' {
			out = append(out, terms[i])
		}
	}
	return out
}

// adornedPredicateName returns the specialized predicate name a
// (pred, adornment) pair compiles to. An all-free adornment carries no
// restriction, so it reuses the original name rather than generating a
// pointless specialization.
func adornedPredicateName(pred string, adorn adornment) string {
	if adorn.isAllFree() {
		return pred
	}
	return pred + "__" + string(adorn)
}

// magicPredicateName names the magic predicate for (pred, adornment).
func magicPredicateName(pred string, adorn adornment) string {
	return "m_" + pred + "_" + string(adorn)
}
