// Package query implements the compiler from a normalized, stratified,
// magic-rewritten Program into relation algebra plans, the semi-naive
// evaluator that runs those plans to a fixed point stratum by stratum, and
// the Database façade that ties compilation and evaluation to a
// transact.Transaction.
package query

import "fmt"

// CompilationErrorKind distinguishes the ways compiling a program or rule
// body can fail, carried over from the original engine's closed
// QueryCompilationError enum.
type CompilationErrorKind int

const (
	UnexpectedForm CompilationErrorKind = iota
	ArityMismatch
	UndefinedRule
	UnsafeUnboundVars
	LogicError
	EntryNotFound
)

// CompilationError is returned by Database.RunQuery and ExplainQuery when a
// program cannot be turned into a relation plan. Kind lets a caller branch
// on the failure category rather than parsing the message.
type CompilationError struct {
	Kind    CompilationErrorKind
	RuleName string
	Detail  string
}

func (e *CompilationError) Error() string {
	switch e.Kind {
	case UnexpectedForm:
		return fmt.Sprintf("query: unexpected atom form in rule %q: %s", e.RuleName, e.Detail)
	case ArityMismatch:
		return fmt.Sprintf("query: arity mismatch calling rule %q: %s", e.RuleName, e.Detail)
	case UndefinedRule:
		return fmt.Sprintf("query: undefined rule %q", e.RuleName)
	case UnsafeUnboundVars:
		return fmt.Sprintf("query: unbound variable in rule %q: %s", e.RuleName, e.Detail)
	case LogicError:
		return fmt.Sprintf("query: logic error in rule %q: %s", e.RuleName, e.Detail)
	case EntryNotFound:
		return fmt.Sprintf("query: entry rule %q not found", e.RuleName)
	default:
		return fmt.Sprintf("query: compilation error in rule %q: %s", e.RuleName, e.Detail)
	}
}
