package main

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/log"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [file]",
	Short: "Apply an attribute schema change from a JSON attrs payload",
	Long:  `Reads a { attrs: [{op: install|retract, ...}, ...] } document from file, or stdin if omitted, and commits it.`,
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
		var payload jsonAttrTxRequest
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("parse attrs payload: %w", err)
		}
		req, err := toAttrTxRequest(payload)
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		tx, err := db.BeginWrite()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := tx.TxAttrs(req); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		if err := tx.Commit("schema change", false); err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		log.WithComponent("cli").Info().Int("ops", len(req.Ops)).Msg("schema applied")
		return nil
	},
}
