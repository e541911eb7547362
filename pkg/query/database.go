package query

import (
	"fmt"
	"sort"

	"github.com/cuemby/faktum/pkg/log"
	"github.com/cuemby/faktum/pkg/magic"
	"github.com/cuemby/faktum/pkg/metrics"
	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/relation"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/transact"
	"github.com/cuemby/faktum/pkg/value"
)

// Database is the query façade over a triple store: it turns an
// InputProgram into relation algebra, runs it to a fixed point, and
// shapes the entry relation's rows per the query's `out` block.
type Database struct {
	db *transact.Database
}

// NewDatabase wraps a transaction engine handle for querying.
func NewDatabase(db *transact.Database) *Database {
	return &Database{db: db}
}

// Result is a query's output: the projected column names, in order,
// and the matching rows.
type Result struct {
	Columns []string
	Rows    []relation.Row
}

// compiled holds everything RunQuery and ExplainQuery both need after
// parsing, normalizing, stratifying, and magic-rewriting an
// InputProgram.
type compiled struct {
	program *program.Program
	columns []string
	vld     value.Validity
}

// compile turns in into a magic-rewritten program ready for
// evaluation or explanation. It validates the program against the
// original (non-rewritten) form first, so a stratification or safety
// failure is reported against the rules the caller actually wrote.
func (d *Database) compile(in InputProgram) (*compiled, error) {
	raw, err := buildProgram(in)
	if err != nil {
		return nil, err
	}
	if err := program.Normalize(raw); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if _, err := program.Stratify(raw); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	entryRS := raw.Lookup(raw.Entry)
	columns := in.Out.Out
	if len(columns) == 0 {
		columns = make([]string, entryRS.Arity)
		for i := range columns {
			columns[i] = fmt.Sprintf("_%d", i)
		}
	} else if len(columns) != entryRS.Arity {
		return nil, &CompilationError{Kind: ArityMismatch, RuleName: raw.Entry, Detail: fmt.Sprintf("out lists %d columns, entry rule has arity %d", len(columns), entryRS.Arity)}
	}

	rewritten, err := magic.Rewrite(raw)
	if err != nil {
		return nil, fmt.Errorf("query: magic rewrite: %w", err)
	}

	vld := value.CurrentValidity()
	if in.At != nil {
		vld = value.Validity(*in.At)
	}
	return &compiled{program: rewritten, columns: columns, vld: vld}, nil
}

// RunQuery compiles and evaluates in against the database's current
// contents (or as of in.At, if set) and returns the entry relation's
// rows, sorted, offset, and limited per in.Out.
func (d *Database) RunQuery(in InputProgram) (*Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.QueryDuration)

	compileTimer := metrics.NewTimer()
	c, err := d.compile(in)
	compileTimer.ObserveDuration(metrics.QueryCompileDuration)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	tx, err := d.db.Begin(false)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	defer tx.Rollback()

	scratch := tx.Scratch()
	scratchTx, err := scratch.Begin(true)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query: begin scratch: %w", err)
	}
	// Evaluation's scratch tables are purely an intermediate of this one
	// query; rolling back discards them without the extra round trip a
	// Commit-then-DropTable sequence would need.
	defer scratchTx.Rollback()

	ctx := newTxEvalContext(tx, scratchTx)
	ruleTables, err := evaluateProgram(tx.Catalog(), scratch, scratchTx, ctx, c.program, c.vld)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	info, ok := ruleTables[c.program.Entry]
	if !ok {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, &CompilationError{Kind: EntryNotFound, RuleName: c.program.Entry}
	}
	rows, err := ctx.ReadTable(info.table)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	rows = applyOutOpts(c.columns, rows, in.Out)
	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	log.WithComponent("query").Debug().Int("rows", len(rows)).Msg("query complete")
	return &Result{Columns: c.columns, Rows: rows}, nil
}

// ExplainQuery compiles in exactly as RunQuery does but stops short of
// evaluating: it returns every ruleset's compiled relation plans,
// keyed by rule name, for a caller to print or inspect. This is only
// possible because the relation algebra is a closed tagged union of
// plain data rather than a tree of opaque closures.
func (d *Database) ExplainQuery(in InputProgram) (map[string][]*relation.Relation, error) {
	c, err := d.compile(in)
	if err != nil {
		return nil, err
	}

	tx, err := d.db.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ruleTables := make(map[string]ruleInfo, len(c.program.Rules))
	var next storage.TempStoreId
	for name, rs := range c.program.Rules {
		next++
		ruleTables[name] = ruleInfo{table: next, arity: rs.Arity}
	}

	plans := make(map[string][]*relation.Relation, len(c.program.Rules))
	for name, rs := range c.program.Rules {
		for _, r := range rs.Rules {
			plan, err := compileRuleBody(tx.Catalog(), c.vld, ruleTables, r)
			if err != nil {
				return nil, err
			}
			plans[name] = append(plans[name], plan)
		}
	}
	return plans, nil
}

// applyOutOpts sorts, offsets, and limits rows in place per out,
// resolving sort keys against columns by position. Ordering is done
// with an in-memory sort.SliceStable over the already-materialized
// entry rows rather than an external merge-sort: the entry relation is
// already fully in the scratch store by the time a query reaches this
// point, so there is no unbounded stream to sort incrementally.
func applyOutOpts(columns []string, rows []relation.Row, out OutOpts) []relation.Row {
	if len(out.Sort) > 0 {
		index := make(map[string]int, len(columns))
		for i, c := range columns {
			index[c] = i
		}
		sort.SliceStable(rows, func(i, j int) bool {
			for _, key := range out.Sort {
				col, ok := index[key.Var]
				if !ok {
					continue
				}
				c := value.Compare(rows[i][col], rows[j][col])
				if c == 0 {
					continue
				}
				if key.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if out.Offset != nil {
		o := *out.Offset
		if o < 0 {
			o = 0
		}
		if o > len(rows) {
			o = len(rows)
		}
		rows = rows[o:]
	}
	if out.Limit != nil && *out.Limit < len(rows) {
		l := *out.Limit
		if l < 0 {
			l = 0
		}
		rows = rows[:l]
	}
	return rows
}
