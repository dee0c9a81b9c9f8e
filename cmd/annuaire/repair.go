// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair <input-dir> <output-dir>",
	Short: "Fix mechanical defects in model-produced TSVs",
	Long: `Repair walks every TSV under the input tree and writes fixed copies to
the same relative paths under the output tree: byte order marks removed,
missing headers inserted, and rows with the wrong number of columns
padded or merged. Inputs are never modified.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := repair.RepairTree(args[0], args[1], os.Stdout)
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d file(s) failed repair", result.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
