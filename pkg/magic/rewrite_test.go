package magic

import (
	"testing"

	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ancestorProgram(t *testing.T) *program.Program {
	t.Helper()
	p := program.New("query")
	require.NoError(t, p.AddRule(program.Rule{
		Name: "ancestor",
		Head: []program.HeadTerm{{Term: value.Variable("a")}, {Term: value.Variable("b")}},
		Body: []program.Atom{program.AttrTripleAtom("parent", value.Variable("a"), value.Variable("b"))},
	}))
	require.NoError(t, p.AddRule(program.Rule{
		Name: "ancestor",
		Head: []program.HeadTerm{{Term: value.Variable("a")}, {Term: value.Variable("b")}},
		Body: []program.Atom{
			program.AttrTripleAtom("parent", value.Variable("a"), value.Variable("c")),
			program.RuleApplyAtom("ancestor", []value.Term{value.Variable("c"), value.Variable("b")}),
		},
	}))
	require.NoError(t, p.AddRule(program.Rule{
		Name: "query",
		Head: []program.HeadTerm{{Term: value.Variable("x")}},
		Body: []program.Atom{program.RuleApplyAtom("ancestor", []value.Term{value.Variable("x"), value.Constant(value.Keyword("dan"))})},
	}))
	require.NoError(t, program.Normalize(p))
	return p
}

func TestRewritePreservesEntryName(t *testing.T) {
	p := ancestorProgram(t)
	rewritten, err := Rewrite(p)
	require.NoError(t, err)
	assert.Equal(t, "query", rewritten.Entry)
	assert.NotNil(t, rewritten.Lookup("query"))
}

func TestRewriteSpecializesAncestorByAdornment(t *testing.T) {
	p := ancestorProgram(t)
	rewritten, err := Rewrite(p)
	require.NoError(t, err)

	// ancestor is called as ancestor(x, :dan): first arg free, second
	// bound, so the specialized predicate is ancestor__fb.
	specialized := rewritten.Lookup("ancestor__fb")
	require.NotNil(t, specialized)
	assert.Equal(t, 2, specialized.Arity)

	// the original unspecialized ancestor ruleset should not appear,
	// since nothing calls it all-free.
	assert.Nil(t, rewritten.Lookup("ancestor"))

	// a magic predicate for ancestor's fb adornment must exist, seeded
	// (transitively) from the query's constant argument.
	magicName := magicPredicateName("ancestor", "fb")
	assert.NotNil(t, rewritten.Lookup(magicName))
}

func TestRewriteUndefinedEntryRule(t *testing.T) {
	p := program.New("missing")
	_, err := Rewrite(p)
	require.Error(t, err)
}
