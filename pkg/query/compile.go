package query

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/catalog"
	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/relation"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// ruleInfo is what the compiler needs to know about a ruleset already
// materialized by an earlier (lower) stratum to compile a RuleApply atom
// calling it.
type ruleInfo struct {
	table storage.TempStoreId
	arity int
}

// bodyCompiler implements §4.I's "compile a rule body" routine: it folds
// a rule's atoms left to right into one Relation, tracking which
// variables have already been bound (seen) so a reintroduced variable
// compiles to a join rather than a duplicate binding.
type bodyCompiler struct {
	catalog    *catalog.Catalog
	vld        value.Validity
	ruleTables map[string]ruleInfo
	seen       map[string]bool
	temps      int
	ret        *relation.Relation
}

// compileRuleBody compiles one rule of a ruleset into a Relation whose
// bindings equal the rule's head variables, in head order. cat and vld
// resolve AttrTriple atoms; ruleTables resolves RuleApply atoms to the
// scratch tables earlier strata (or earlier iterations of this same
// stratum) have populated.
func compileRuleBody(cat *catalog.Catalog, vld value.Validity, ruleTables map[string]ruleInfo, r program.Rule) (*relation.Relation, error) {
	if r.Validity != nil {
		vld = *r.Validity
	}
	bc := &bodyCompiler{catalog: cat, vld: vld, ruleTables: ruleTables, seen: make(map[string]bool), ret: relation.Unit()}

	for _, atom := range r.Body {
		if err := bc.compileAtom(atom, r.Name); err != nil {
			return nil, err
		}
	}

	// headNames is the final column name to select for each head
	// position. A variable head term selects the body's existing
	// binding of that name; a constant head term (only ever produced
	// by magic-set seed and supplementary rules, whose heads carry the
	// bound argument values rather than variables) is appended as an
	// extra constant column first.
	extended := bc.ret
	headNames := make([]string, len(r.Head))
	keep := make(map[string]bool, len(r.Head))
	for i, h := range r.Head {
		if h.Term.IsVar {
			v := h.Term.Var
			if !bc.seen[v] {
				return nil, &CompilationError{Kind: UnsafeUnboundVars, RuleName: r.Name, Detail: fmt.Sprintf("head variable %q is not bound by the body", v)}
			}
			headNames[i] = v
			keep[v] = true
			continue
		}
		temp := bc.freshTemp()
		extended = relation.CartesianJoin(extended, relation.Singleton([]string{temp}, relation.Row{h.Term.Const}))
		headNames[i] = temp
		keep[temp] = true
	}

	projected := relation.EliminateTempVars(extended, keep)
	if !sameVarSet(projected.Bindings(), headNames) {
		return nil, &CompilationError{Kind: UnsafeUnboundVars, RuleName: r.Name, Detail: "compiled relation does not bind exactly the head variables"}
	}
	if !sameOrder(projected.Bindings(), headNames) {
		projected = relation.Reorder(projected, headNames)
	}
	return projected, nil
}

func (bc *bodyCompiler) freshTemp() string {
	bc.temps++
	return fmt.Sprintf("$t%d", bc.temps)
}

func (bc *bodyCompiler) compileAtom(atom program.Atom, ruleName string) error {
	switch atom.Kind {
	case program.AtomAttrTriple:
		return bc.compileAttrTriple(atom, ruleName)
	case program.AtomRuleApply:
		return bc.compileRuleApply(atom, ruleName)
	case program.AtomPredicate:
		return bc.compilePredicate(atom, ruleName)
	default:
		return &CompilationError{Kind: UnexpectedForm, RuleName: ruleName, Detail: "unknown atom kind"}
	}
}

// combine folds ts into bc.ret with no correlation: a plain replace when
// ret is still the empty-row identity, a cartesian product otherwise.
func (bc *bodyCompiler) combine(ts *relation.Relation) {
	if bc.ret.IsUnit() {
		bc.ret = ts
		return
	}
	bc.ret = relation.CartesianJoin(bc.ret, ts)
}

// joinIn folds ts into bc.ret by equi-join, the compiled form of the
// re-seen variable rule: the already-bound column lives in leftKeys,
// the newly scanned relation's matching temp column in rightKeys.
func (bc *bodyCompiler) joinIn(ts *relation.Relation, leftKeys, rightKeys []string) error {
	if bc.ret.IsUnit() {
		return &CompilationError{Kind: LogicError, Detail: "join requested against an empty body (no prior binding to join on)"}
	}
	j, err := relation.Join(bc.ret, ts, leftKeys, rightKeys)
	if err != nil {
		return err
	}
	bc.ret = j
	return nil
}

func (bc *bodyCompiler) compileAttrTriple(atom program.Atom, ruleName string) error {
	attr, err := bc.catalog.LookupByKeyword(atom.Attr)
	if err != nil {
		return err
	}
	if attr == nil {
		return &CompilationError{Kind: LogicError, RuleName: ruleName, Detail: fmt.Sprintf("unknown attribute %q", atom.Attr)}
	}
	if atom.Negated {
		return bc.compileNegatedAttrTriple(atom, attr.Id, ruleName)
	}

	switch {
	case !atom.Entity.IsVar && atom.Value.IsVar:
		return bc.compileConstEntVarVal(atom, attr.Id)
	case atom.Entity.IsVar && !atom.Value.IsVar:
		return bc.compileVarEntConstVal(atom, attr.Id)
	case atom.Entity.IsVar && atom.Value.IsVar:
		return bc.compileVarEntVarVal(atom, attr.Id)
	default:
		return bc.compileConstEntConstVal(atom, attr.Id)
	}
}

func (bc *bodyCompiler) compileConstEntVarVal(atom program.Atom, attrID value.AttrId) error {
	entConst := atom.Entity.Const.Entity
	valVar := atom.Value.Var
	if !bc.seen[valVar] {
		ts := relation.NewTripleScan(relation.TripleScanSpec{Attr: attrID, Validity: bc.vld, EntityConst: &entConst, ValueBind: valVar})
		bc.combine(ts)
		bc.seen[valVar] = true
		return nil
	}
	temp := bc.freshTemp()
	ts := relation.NewTripleScan(relation.TripleScanSpec{Attr: attrID, Validity: bc.vld, EntityConst: &entConst, ValueBind: temp})
	return bc.joinIn(ts, []string{valVar}, []string{temp})
}

func (bc *bodyCompiler) compileVarEntConstVal(atom program.Atom, attrID value.AttrId) error {
	valConst := atom.Value.Const
	entVar := atom.Entity.Var
	if !bc.seen[entVar] {
		ts := relation.NewTripleScan(relation.TripleScanSpec{Attr: attrID, Validity: bc.vld, EntityBind: entVar, ValueConst: &valConst})
		bc.combine(ts)
		bc.seen[entVar] = true
		return nil
	}
	temp := bc.freshTemp()
	ts := relation.NewTripleScan(relation.TripleScanSpec{Attr: attrID, Validity: bc.vld, EntityBind: temp, ValueConst: &valConst})
	return bc.joinIn(ts, []string{entVar}, []string{temp})
}

func (bc *bodyCompiler) compileVarEntVarVal(atom program.Atom, attrID value.AttrId) error {
	entVar, valVar := atom.Entity.Var, atom.Value.Var
	entFresh, valFresh := !bc.seen[entVar], !bc.seen[valVar]

	entBind := entVar
	if !entFresh {
		entBind = bc.freshTemp()
	}
	valBind := valVar
	if !valFresh {
		valBind = bc.freshTemp()
	}
	ts := relation.NewTripleScan(relation.TripleScanSpec{Attr: attrID, Validity: bc.vld, EntityBind: entBind, ValueBind: valBind})

	var leftKeys, rightKeys []string
	if !entFresh {
		leftKeys = append(leftKeys, entVar)
		rightKeys = append(rightKeys, entBind)
	}
	if !valFresh {
		leftKeys = append(leftKeys, valVar)
		rightKeys = append(rightKeys, valBind)
	}
	if len(leftKeys) > 0 {
		if err := bc.joinIn(ts, leftKeys, rightKeys); err != nil {
			return err
		}
	} else {
		bc.combine(ts)
	}
	if entFresh {
		bc.seen[entVar] = true
	}
	if valFresh {
		bc.seen[valVar] = true
	}
	return nil
}

func (bc *bodyCompiler) compileConstEntConstVal(atom program.Atom, attrID value.AttrId) error {
	entConst := atom.Entity.Const.Entity
	valConst := atom.Value.Const
	ts := relation.NewTripleScan(relation.TripleScanSpec{Attr: attrID, Validity: bc.vld, EntityConst: &entConst, ValueConst: &valConst})
	bc.combine(ts)
	return nil
}

// compileNegatedAttrTriple compiles `not attr(e, v)`. Negation introduces
// no new bindings, so every variable position must already be bound;
// compilation fails with UnsafeUnboundVars otherwise.
func (bc *bodyCompiler) compileNegatedAttrTriple(atom program.Atom, attrID value.AttrId, ruleName string) error {
	spec := relation.TripleScanSpec{Attr: attrID, Validity: bc.vld}
	var leftKeys, rightKeys []string

	if atom.Entity.IsVar {
		if !bc.seen[atom.Entity.Var] {
			return &CompilationError{Kind: UnsafeUnboundVars, RuleName: ruleName, Detail: fmt.Sprintf("negated atom references unbound variable %q", atom.Entity.Var)}
		}
		temp := bc.freshTemp()
		spec.EntityBind = temp
		leftKeys = append(leftKeys, atom.Entity.Var)
		rightKeys = append(rightKeys, temp)
	} else {
		entConst := atom.Entity.Const.Entity
		spec.EntityConst = &entConst
	}

	if atom.Value.IsVar {
		if !bc.seen[atom.Value.Var] {
			return &CompilationError{Kind: UnsafeUnboundVars, RuleName: ruleName, Detail: fmt.Sprintf("negated atom references unbound variable %q", atom.Value.Var)}
		}
		temp := bc.freshTemp()
		spec.ValueBind = temp
		leftKeys = append(leftKeys, atom.Value.Var)
		rightKeys = append(rightKeys, temp)
	} else {
		valConst := atom.Value.Const
		spec.ValueConst = &valConst
	}

	ts := relation.NewTripleScan(spec)
	aj, err := relation.AntiJoin(bc.ret, ts, leftKeys, rightKeys)
	if err != nil {
		return err
	}
	bc.ret = aj
	return nil
}

func (bc *bodyCompiler) compileRuleApply(atom program.Atom, ruleName string) error {
	info, ok := bc.ruleTables[atom.RuleName]
	if !ok {
		return &CompilationError{Kind: UndefinedRule, RuleName: atom.RuleName}
	}
	if len(atom.Args) != info.arity {
		return &CompilationError{Kind: ArityMismatch, RuleName: atom.RuleName, Detail: fmt.Sprintf("expected %d args, got %d", info.arity, len(atom.Args))}
	}
	if atom.Negated {
		return bc.compileNegatedRuleApply(atom, info, ruleName)
	}

	callBindings := make([]string, len(atom.Args))
	var leftKeys, rightKeys, freshVars []string
	var filters []relation.Predicate
	for i, arg := range atom.Args {
		switch {
		case arg.IsVar && !bc.seen[arg.Var]:
			callBindings[i] = arg.Var
			freshVars = append(freshVars, arg.Var)
		case arg.IsVar:
			temp := bc.freshTemp()
			callBindings[i] = temp
			leftKeys = append(leftKeys, arg.Var)
			rightKeys = append(rightKeys, temp)
		default:
			temp := bc.freshTemp()
			callBindings[i] = temp
			filters = append(filters, relation.Predicate{Op: "=", Left: value.Variable(temp), Right: value.Constant(arg.Const)})
		}
	}

	ts := relation.NewDerived(callBindings, info.table)
	for _, p := range filters {
		ts = relation.Filter(ts, p)
	}
	if len(leftKeys) > 0 {
		if err := bc.joinIn(ts, leftKeys, rightKeys); err != nil {
			return err
		}
	} else {
		bc.combine(ts)
	}
	for _, v := range freshVars {
		bc.seen[v] = true
	}
	return nil
}

// compileNegatedRuleApply compiles `not rule(args...)`. As with a negated
// AttrTriple, no argument may introduce a fresh binding.
func (bc *bodyCompiler) compileNegatedRuleApply(atom program.Atom, info ruleInfo, ruleName string) error {
	callBindings := make([]string, len(atom.Args))
	var leftKeys, rightKeys []string
	var filters []relation.Predicate
	for i, arg := range atom.Args {
		if arg.IsVar {
			if !bc.seen[arg.Var] {
				return &CompilationError{Kind: UnsafeUnboundVars, RuleName: ruleName, Detail: fmt.Sprintf("negated call to %q references unbound variable %q", atom.RuleName, arg.Var)}
			}
			temp := bc.freshTemp()
			callBindings[i] = temp
			leftKeys = append(leftKeys, arg.Var)
			rightKeys = append(rightKeys, temp)
		} else {
			temp := bc.freshTemp()
			callBindings[i] = temp
			filters = append(filters, relation.Predicate{Op: "=", Left: value.Variable(temp), Right: value.Constant(arg.Const)})
		}
	}
	ts := relation.NewDerived(callBindings, info.table)
	for _, p := range filters {
		ts = relation.Filter(ts, p)
	}
	aj, err := relation.AntiJoin(bc.ret, ts, leftKeys, rightKeys)
	if err != nil {
		return err
	}
	bc.ret = aj
	return nil
}

func (bc *bodyCompiler) compilePredicate(atom program.Atom, ruleName string) error {
	for _, t := range []value.Term{atom.Left, atom.Right} {
		if t.IsVar && !bc.seen[t.Var] {
			return &CompilationError{Kind: UnsafeUnboundVars, RuleName: ruleName, Detail: fmt.Sprintf("predicate references unbound variable %q", t.Var)}
		}
	}
	bc.ret = relation.Filter(bc.ret, relation.Predicate{Op: atom.Op, Left: atom.Left, Right: atom.Right})
	return nil
}

func sameVarSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
