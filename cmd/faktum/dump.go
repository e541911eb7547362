package main

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/value"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every live attribute value for every entity as of a validity",
	Long: `dump walks the EAVT index and prints a flat JSON array of
{entity, attr, value} rows, the whole-entity view entities_at gives the
original engine's pull/projection layer. Neither a pull nor projection
surface is implemented here (out of scope); dump exists as the raw scan
underneath it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetInt64("at")
		vld := value.ValidityMax
		if at != 0 {
			vld = value.Validity(at)
		}

		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		tx, err := db.Begin(false)
		if err != nil {
			return fmt.Errorf("begin read: %w", err)
		}
		defer tx.Rollback()

		rows, err := tx.ScanEntitiesAt(vld)
		if err != nil {
			return fmt.Errorf("scan entities: %w", err)
		}

		out := make([]map[string]any, len(rows))
		for i, r := range rows {
			name := r.Attr.String()
			if attr, err := tx.Catalog().Lookup(r.Attr); err == nil && attr != nil {
				name = attr.Name
			}
			out[i] = map[string]any{
				"entity": int64(r.Entity),
				"attr":   name,
				"value":  formatDataValue(r.Value),
			}
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	},
}

func init() {
	dumpCmd.Flags().Int64("at", 0, "Validity to read as of (default: now)")
	rootCmd.AddCommand(dumpCmd)
}
