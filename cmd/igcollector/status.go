package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"igcollector/pkg/ui"
)

var statusJSON bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a snapshot of the pool",
	Long: `Show a point-in-time snapshot of the account pool: per-state counts,
how many accounts are eligible right now, and aggregate health.

The snapshot is derived from pool state; it never mutates accounts.`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit the snapshot as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	p, _, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	// Sweep expired cooldowns so the report reflects reality
	p.Recover(time.Now())

	snap := p.Snapshot()

	if statusJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(snap); err != nil {
			ui.PrintError("Failed to encode snapshot", err.Error())
			os.Exit(1)
		}
		return
	}

	fmt.Print(ui.RenderSnapshot(snap))
}
