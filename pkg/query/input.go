package query

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/value"
)

// InputProgram is §6.3's query input shape: a list of rules, the name of
// the distinguished entry ruleset ("?" when Entry is empty), plus output
// shaping options.
type InputProgram struct {
	Entry string      `json:"entry,omitempty"`
	At    *int64      `json:"at,omitempty"`
	Rules []InputRule `json:"rules"`
	Out   OutOpts     `json:"out"`
}

// InputRule is one `{ rule, args, at?, body }` clause.
type InputRule struct {
	Rule string            `json:"rule"`
	Args []json.RawMessage `json:"args"`
	At   *int64            `json:"at,omitempty"`
	Body []InputAtom       `json:"body"`
}

// InputAtom is one body atom, exactly one of its three shapes populated:
// `{triple:[e,a,v]}`, `{rule:name,args:[...]}`, or `{pred:op,args:[...]}`.
// Not marks the atom negated, the JSON surface for the extension point
// program.Atom.Negated reserves.
type InputAtom struct {
	Triple []json.RawMessage `json:"triple,omitempty"`
	Rule   string            `json:"rule,omitempty"`
	Pred   string            `json:"pred,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
	Not    bool              `json:"not,omitempty"`
}

// OutOpts is §6.3's `out` block: names for the entry relation's columns
// (by position, one per entry-rule argument), sort keys over those
// names, and how to page the result.
type OutOpts struct {
	Out    []string  `json:"out,omitempty"`
	Sort   []SortKey `json:"sort,omitempty"`
	Limit  *int      `json:"limit,omitempty"`
	Offset *int      `json:"offset,omitempty"`
}

// SortKey is one `(var, asc|desc)` pair, wire-encoded as a 2-element
// JSON array.
type SortKey struct {
	Var  string
	Desc bool
}

func (s *SortKey) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("query: sort key must be a [var, \"asc\"|\"desc\"] pair: %w", err)
	}
	s.Var = pair[0]
	switch pair[1] {
	case "", "asc":
		s.Desc = false
	case "desc":
		s.Desc = true
	default:
		return fmt.Errorf("query: sort key: unknown direction %q", pair[1])
	}
	return nil
}

// decodeTerm turns one JSON-encoded term into a value.Term. A JSON
// string beginning with "?" is a variable named by the rest of the
// string; any other string is a string constant. Bare JSON
// null/bool/number decode to the matching DataValue kind. An object
// selects one of the kinds a bare JSON scalar can't represent:
// {"kw":"name"} a keyword, {"e":123} an entity reference, {"b":"..."}
// base64-encoded bytes.
func decodeTerm(raw json.RawMessage) (value.Term, error) {
	if string(raw) == "null" {
		return value.Constant(value.Null()), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.HasPrefix(s, "?") && len(s) > 1 {
			return value.Variable(s[1:]), nil
		}
		return value.Constant(value.String(s)), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj["kw"] != nil:
			var kw string
			if err := json.Unmarshal(obj["kw"], &kw); err != nil {
				return value.Term{}, fmt.Errorf("query: keyword term: %w", err)
			}
			return value.Constant(value.Keyword(kw)), nil
		case obj["e"] != nil:
			var id int64
			if err := json.Unmarshal(obj["e"], &id); err != nil {
				return value.Term{}, fmt.Errorf("query: entity term: %w", err)
			}
			return value.Constant(value.EntityRef(value.EntityId(id))), nil
		case obj["b"] != nil:
			var encoded string
			if err := json.Unmarshal(obj["b"], &encoded); err != nil {
				return value.Term{}, fmt.Errorf("query: bytes term: %w", err)
			}
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return value.Term{}, fmt.Errorf("query: bytes term: %w", err)
			}
			return value.Constant(value.Bytes(decoded)), nil
		default:
			return value.Term{}, fmt.Errorf("query: unrecognized term object %s", raw)
		}
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return value.Constant(value.Bool(b)), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err == nil {
		if i, err := num.Int64(); err == nil {
			return value.Constant(value.Int(i)), nil
		}
		f, err := num.Float64()
		if err != nil {
			return value.Term{}, fmt.Errorf("query: numeric term: %w", err)
		}
		return value.Constant(value.Float(f)), nil
	}

	return value.Term{}, fmt.Errorf("query: cannot decode term %s", raw)
}

func decodeTerms(raw []json.RawMessage) ([]value.Term, error) {
	terms := make([]value.Term, len(raw))
	for i, r := range raw {
		t, err := decodeTerm(r)
		if err != nil {
			return nil, err
		}
		terms[i] = t
	}
	return terms, nil
}

func convertAtom(ia InputAtom, ruleName string) (program.Atom, error) {
	switch {
	case ia.Triple != nil:
		if len(ia.Triple) != 3 {
			return program.Atom{}, &CompilationError{Kind: UnexpectedForm, RuleName: ruleName, Detail: fmt.Sprintf("triple atom needs exactly 3 terms, got %d", len(ia.Triple))}
		}
		entity, err := decodeTerm(ia.Triple[0])
		if err != nil {
			return program.Atom{}, err
		}
		attrTerm, err := decodeTerm(ia.Triple[1])
		if err != nil {
			return program.Atom{}, err
		}
		if attrTerm.IsVar || attrTerm.Const.Kind != value.KindKeyword {
			return program.Atom{}, &CompilationError{Kind: UnexpectedForm, RuleName: ruleName, Detail: "triple attribute position must be a keyword constant"}
		}
		val, err := decodeTerm(ia.Triple[2])
		if err != nil {
			return program.Atom{}, err
		}
		atom := program.AttrTripleAtom(attrTerm.Const.Str, entity, val)
		atom.Negated = ia.Not
		return atom, nil

	case ia.Rule != "":
		args, err := decodeTerms(ia.Args)
		if err != nil {
			return program.Atom{}, err
		}
		if ia.Not {
			return program.NegatedRuleApplyAtom(ia.Rule, args), nil
		}
		return program.RuleApplyAtom(ia.Rule, args), nil

	case ia.Pred != "":
		if len(ia.Args) != 2 {
			return program.Atom{}, &CompilationError{Kind: UnexpectedForm, RuleName: ruleName, Detail: fmt.Sprintf("predicate atom needs exactly 2 args, got %d", len(ia.Args))}
		}
		args, err := decodeTerms(ia.Args)
		if err != nil {
			return program.Atom{}, err
		}
		return program.PredicateAtom(ia.Pred, args[0], args[1]), nil

	default:
		return program.Atom{}, &CompilationError{Kind: UnexpectedForm, RuleName: ruleName, Detail: "atom has none of triple/rule/pred"}
	}
}

// buildProgram converts in into a program.Program, ready for
// Normalize and Stratify.
func buildProgram(in InputProgram) (*program.Program, error) {
	entry := in.Entry
	if entry == "" {
		entry = "?"
	}
	p := program.New(entry)
	for _, ir := range in.Rules {
		headArgs, err := decodeTerms(ir.Args)
		if err != nil {
			return nil, err
		}
		head := make([]program.HeadTerm, len(headArgs))
		for i, t := range headArgs {
			head[i] = program.HeadTerm{Term: t}
		}
		body := make([]program.Atom, len(ir.Body))
		for i, ia := range ir.Body {
			atom, err := convertAtom(ia, ir.Rule)
			if err != nil {
				return nil, err
			}
			body[i] = atom
		}
		rule := program.Rule{Name: ir.Rule, Head: head, Body: body}
		if ir.At != nil {
			v := value.Validity(*ir.At)
			rule.Validity = &v
		}
		if err := p.AddRule(rule); err != nil {
			return nil, err
		}
	}
	if p.Lookup(entry) == nil {
		return nil, &CompilationError{Kind: EntryNotFound, RuleName: entry}
	}
	return p, nil
}
