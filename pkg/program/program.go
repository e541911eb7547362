package program

// Program is the compiler's normalized input: every ruleset keyed by
// its head keyword, plus a distinguished entry ruleset name (the "?"
// query).
type Program struct {
	Rules map[string]*RuleSet
	Entry string
}

// New constructs an empty Program with the given entry rule name.
func New(entry string) *Program {
	return &Program{Rules: make(map[string]*RuleSet), Entry: entry}
}

// AddRule registers r under its Name, creating the ruleset on first
// use and checking arity against any rules already present.
func (p *Program) AddRule(r Rule) error {
	arity := len(r.Head)
	rs, ok := p.Rules[r.Name]
	if !ok {
		rs = &RuleSet{Name: r.Name, Arity: arity}
		p.Rules[r.Name] = rs
	} else if rs.Arity != arity {
		return &ArityMismatchError{RuleName: r.Name, Want: rs.Arity, Got: arity}
	}
	rs.Rules = append(rs.Rules, r)
	return nil
}

// Lookup returns the ruleset registered under name, or nil if none is.
func (p *Program) Lookup(name string) *RuleSet {
	return p.Rules[name]
}
