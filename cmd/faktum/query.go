package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/query"
	"github.com/cuemby/faktum/pkg/value"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Run a Datalog query from a JSON program",
	Long:  `Reads a { rules: [...], out: {...} } document from file, or stdin if omitted, compiles it, evaluates it to a fixed point, and prints the entry relation's rows as JSON.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		raw, err := readInput(path)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		var in query.InputProgram
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("parse query program: %w", err)
		}

		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		result, err := query.NewDatabase(db).RunQuery(in)
		if err != nil {
			return fmt.Errorf("run query: %w", err)
		}

		out, err := json.MarshalIndent(formatResult(result), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func formatResult(r *query.Result) map[string]any {
	rows := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		cols := make([]any, len(row))
		for j, v := range row {
			cols[j] = formatDataValue(v)
		}
		rows[i] = cols
	}
	return map[string]any{"columns": r.Columns, "rows": rows}
}

// formatDataValue renders a DataValue the same way jsonvalue.go's
// decodeDataValue reads it back in, so a query result can be fed
// straight into another tx/query payload.
func formatDataValue(v value.DataValue) any {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int
	case value.KindFloat:
		return v.Float
	case value.KindString:
		return v.Str
	case value.KindBytes:
		return map[string]string{"b": base64.StdEncoding.EncodeToString(v.Bytes)}
	case value.KindKeyword:
		return map[string]string{"kw": v.Str}
	case value.KindEntityRef:
		return map[string]int64{"e": int64(v.Entity)}
	case value.KindList:
		items := make([]any, len(v.List))
		for i, item := range v.List {
			items[i] = formatDataValue(item)
		}
		return items
	default:
		return nil
	}
}
