package main

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/log"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx [file]",
	Short: "Apply a write transaction from a JSON tx payload",
	Long:  `Reads a { tx: [{put|retract: {e?, a, v, vld?}}, ...], comment? } document from file, or stdin if omitted, and commits it.`,
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
		var payload jsonTxRequest
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("parse tx payload: %w", err)
		}
		req, err := toTxRequest(payload)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")

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

		resolved, err := tx.TxTriples(req)
		if err != nil {
			return fmt.Errorf("write triples: %w", err)
		}
		if err := tx.Commit(req.Comment, dryRun); err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		log.WithComponent("cli").Info().Int64("tx_id", int64(tx.ID())).Bool("dry_run", dryRun).Msg("transaction applied")
		if len(resolved) > 0 {
			out, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
		return nil
	},
}

func init() {
	txCmd.Flags().Bool("dry-run", false, "Validate and resolve the transaction without persisting it")
}
