// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/ping"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check API connectivity and credentials for both vendors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ping.All(cmd.Context(), apiKeys(), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
