package program

import (
	"testing"

	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratifyAncestorRecursion(t *testing.T) {
	// ancestor(a,b) :- parent(a,b).
	// ancestor(a,b) :- parent(a,c), ancestor(c,b).
	p := New("query")
	require.NoError(t, p.AddRule(Rule{
		Name: "ancestor",
		Head: []HeadTerm{{Term: value.Variable("a")}, {Term: value.Variable("b")}},
		Body: []Atom{AttrTripleAtom("parent", value.Variable("a"), value.Variable("b"))},
	}))
	require.NoError(t, p.AddRule(Rule{
		Name: "ancestor",
		Head: []HeadTerm{{Term: value.Variable("a")}, {Term: value.Variable("b")}},
		Body: []Atom{
			AttrTripleAtom("parent", value.Variable("a"), value.Variable("c")),
			RuleApplyAtom("ancestor", []value.Term{value.Variable("c"), value.Variable("b")}),
		},
	}))
	require.NoError(t, p.AddRule(Rule{
		Name: "query",
		Head: []HeadTerm{{Term: value.Variable("x")}},
		Body: []Atom{RuleApplyAtom("ancestor", []value.Term{value.Variable("x"), value.Constant(value.Keyword("dan"))})},
	}))

	require.NoError(t, Normalize(p))
	strata, err := Stratify(p)
	require.NoError(t, err)
	require.Len(t, strata, 2)
	assert.ElementsMatch(t, []string{"ancestor"}, strata[0].Rules)
	assert.ElementsMatch(t, []string{"query"}, strata[1].Rules)
}

func TestStratifyNegationInCycleFails(t *testing.T) {
	// a(x) :- not b(x). b(x) :- not a(x).
	p := New("a")
	require.NoError(t, p.AddRule(Rule{
		Name: "a",
		Head: []HeadTerm{{Term: value.Variable("x")}},
		Body: []Atom{
			AttrTripleAtom("dom", value.Variable("x"), value.Variable("x")),
			NegatedRuleApplyAtom("b", []value.Term{value.Variable("x")}),
		},
	}))
	require.NoError(t, p.AddRule(Rule{
		Name: "b",
		Head: []HeadTerm{{Term: value.Variable("x")}},
		Body: []Atom{
			AttrTripleAtom("dom", value.Variable("x"), value.Variable("x")),
			NegatedRuleApplyAtom("a", []value.Term{value.Variable("x")}),
		},
	}))

	_, err := Stratify(p)
	require.Error(t, err)
	var stratErr *StratificationError
	assert.ErrorAs(t, err, &stratErr)
}

func TestStratifyUndefinedRule(t *testing.T) {
	p := New("q")
	require.NoError(t, p.AddRule(Rule{
		Name: "q",
		Head: []HeadTerm{{Term: value.Variable("x")}},
		Body: []Atom{RuleApplyAtom("nope", []value.Term{value.Variable("x")})},
	}))
	_, err := Stratify(p)
	require.Error(t, err)
	var undef *UndefinedRuleError
	assert.ErrorAs(t, err, &undef)
}

func TestAddRuleArityMismatch(t *testing.T) {
	p := New("r")
	require.NoError(t, p.AddRule(Rule{
		Name: "r",
		Head: []HeadTerm{{Term: value.Variable("x")}},
		Body: []Atom{AttrTripleAtom("dom", value.Variable("x"), value.Variable("x"))},
	}))
	err := p.AddRule(Rule{
		Name: "r",
		Head: []HeadTerm{{Term: value.Variable("x")}, {Term: value.Variable("y")}},
		Body: []Atom{AttrTripleAtom("dom", value.Variable("x"), value.Variable("y"))},
	})
	require.Error(t, err)
	var arityErr *ArityMismatchError
	assert.ErrorAs(t, err, &arityErr)
}

func TestNormalizeUnsafeVar(t *testing.T) {
	// ?(x, y) :- parent(x, z).
	p := New("query")
	require.NoError(t, p.AddRule(Rule{
		Name: "query",
		Head: []HeadTerm{{Term: value.Variable("x")}, {Term: value.Variable("y")}},
		Body: []Atom{AttrTripleAtom("parent", value.Variable("x"), value.Variable("z"))},
	}))
	err := Normalize(p)
	require.Error(t, err)
	var unsafe *UnsafeUnboundVarsError
	assert.ErrorAs(t, err, &unsafe)
	assert.Equal(t, "y", unsafe.Var)
}
