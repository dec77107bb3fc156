package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/triage/internal/core/config"
	"github.com/vietddude/triage/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the engine's current health report",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/health/detailed", cfg.Server.Port)
	resp, err := client.Get(url)
	if err != nil {
		slog.Error("Failed to reach engine", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var report health.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		slog.Error("Failed to decode health report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("status: %s  faults: %d  recovered: %d  escalated: %d  recovery: %.1f%%  avg: %.0fms\n",
		report.Status,
		report.TotalFaults,
		report.Recoveries,
		report.Escalations,
		report.RecoveryRatePercent,
		report.AvgRecoveryTimeMS,
	)

	if len(report.RecentFaults) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tSTATE\tATTEMPTS\tMESSAGE")
	for _, f := range report.RecentFaults {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.Kind, f.State, f.Attempts, f.Message)
	}
	_ = w.Flush()
}
