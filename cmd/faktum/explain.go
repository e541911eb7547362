package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cuemby/faktum/pkg/query"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [file]",
	Short: "Compile a query program and print its relation plan without evaluating it",
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

		plans, err := query.NewDatabase(db).ExplainQuery(in)
		if err != nil {
			return fmt.Errorf("explain query: %w", err)
		}

		names := make([]string, 0, len(plans))
		for name := range plans {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for i, plan := range plans[name] {
				fmt.Printf("%s[%d]:\n%s\n\n", name, i, plan.Describe("  "))
			}
		}
		return nil
	},
}
