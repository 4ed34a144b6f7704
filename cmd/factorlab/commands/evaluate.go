package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/evaluation"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a factor over a historical window",
	Long: `Runs the full evaluation for one factor: the per-date rank IC
series, the quantile group backtest and the health classification.

Flags:
  --factor       factor name (required)
  --from         window start (YYYY-MM-DD, required)
  --to           window end (YYYY-MM-DD, default: today)
  --freq         schedule frequency: daily, weekly, monthly (default: weekly)
  --groups       quantile bucket count (default: from config)
  --instruments  comma-separated instrument IDs (default: active universe)
  --save         persist the report and status (default: false)

Example:
  go run ./cmd/factorlab evaluate --factor momentum --from 2024-01-01 --to 2024-06-30
  go run ./cmd/factorlab evaluate --factor value --from 2023-01-01 --freq monthly --save`,
	RunE: runEvaluate,
}

var (
	// Flags
	evalFactor      string
	evalFrom        string
	evalTo          string
	evalFreq        string
	evalGroups      int
	evalInstruments string
	evalSave        bool
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalFactor, "factor", "", "factor name (required)")
	evaluateCmd.Flags().StringVar(&evalFrom, "from", "", "window start (YYYY-MM-DD, required)")
	evaluateCmd.Flags().StringVar(&evalTo, "to", "", "window end (YYYY-MM-DD, default: today)")
	evaluateCmd.Flags().StringVar(&evalFreq, "freq", "weekly", "schedule frequency (daily|weekly|monthly)")
	evaluateCmd.Flags().IntVar(&evalGroups, "groups", 0, "quantile bucket count (default: from config)")
	evaluateCmd.Flags().StringVar(&evalInstruments, "instruments", "", "comma-separated instrument IDs")
	evaluateCmd.Flags().BoolVar(&evalSave, "save", false, "persist the report and status")

	evaluateCmd.MarkFlagRequired("factor")
	evaluateCmd.MarkFlagRequired("from")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	window, err := parseWindowFlags()
	if err != nil {
		return err
	}

	application, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer application.close()

	factor, ok := application.registry.Get(evalFactor)
	if !ok {
		return fmt.Errorf("unknown factor %q (available: %s)",
			evalFactor, strings.Join(application.registry.Names(), ", "))
	}

	instruments, err := resolveInstruments(cmd, application)
	if err != nil {
		return err
	}

	if evalGroups > 0 {
		engineCfg := evaluation.ConfigFrom(application.cfg)
		engineCfg.NGroups = evalGroups
		application.evaluator = evaluation.New(application.returns, engineCfg, application.logger)
	}

	fmt.Println("=== Factor Evaluation ===")
	fmt.Printf("\n📅 Window: %s ~ %s (%s)\n",
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"), window.Frequency)
	fmt.Printf("📌 Factor: %s (direction %+d)\n", factor.Name(), factor.Direction())
	fmt.Printf("🌐 Instruments: %d\n\n", len(instruments))

	report, err := application.evaluator.Evaluate(cmd.Context(), factor, instruments, window)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	printReport(report)

	if evalSave {
		if err := application.store.SaveReport(cmd.Context(), report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		if err := application.store.SaveStatus(cmd.Context(), report.FactorID, report.Status); err != nil {
			return fmt.Errorf("save status: %w", err)
		}
		fmt.Println("💾 Report saved")
	}

	return nil
}

// parseWindowFlags builds a validated window from the evaluate flags
func parseWindowFlags() (contracts.Window, error) {
	start, err := time.Parse("2006-01-02", evalFrom)
	if err != nil {
		return contracts.Window{}, fmt.Errorf("invalid start date: %w", err)
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if evalTo != "" {
		end, err = time.Parse("2006-01-02", evalTo)
		if err != nil {
			return contracts.Window{}, fmt.Errorf("invalid end date: %w", err)
		}
	}

	window := contracts.Window{
		Start:     start,
		End:       end,
		Frequency: contracts.Frequency(evalFreq),
	}
	if err := window.Validate(); err != nil {
		return contracts.Window{}, err
	}
	return window, nil
}

// resolveInstruments returns the explicit instrument list from the flag,
// or the active universe from the database.
func resolveInstruments(cmd *cobra.Command, application *app) ([]string, error) {
	if evalInstruments != "" {
		parts := strings.Split(evalInstruments, ",")
		instruments := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				instruments = append(instruments, trimmed)
			}
		}
		return instruments, nil
	}

	instruments, err := application.universe.Instruments(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	return instruments, nil
}

func printReport(report *contracts.FactorEvaluationReport) {
	fmt.Println("✅ Evaluation Completed")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()

	fmt.Println("📊 IC Series")
	fmt.Printf("Dates:    %d (%d defined)\n", report.IC.Len(), len(report.IC.DefinedValues()))
	fmt.Printf("Mean IC:  %s\n", formatStat(report.MeanIC))
	fmt.Printf("IC Std:   %s\n", formatStat(report.ICStd))
	fmt.Printf("IC IR:    %s\n", formatStat(report.ICIR))
	fmt.Printf("Hit Rate: %s\n", formatStat(report.HitRate))
	fmt.Println()

	if report.Groups != nil {
		fmt.Println("📈 Group Backtest")
		for i, bucket := range report.Groups.BucketReturns {
			fmt.Printf("Q%d: %s (%d dates)\n", i+1, formatStat(bucket), report.Groups.BucketDates[i])
		}
		fmt.Printf("Long-Short: %s\n", formatStat(report.Groups.LongShortReturn))
		fmt.Printf("Monotonic:  %v\n", report.Groups.IsMonotonic)
		fmt.Println()
	}

	fmt.Println("🏥 Health")
	switch report.Status {
	case contracts.StatusActive:
		fmt.Println("Status: active ✅")
	case contracts.StatusWarning:
		fmt.Println("Status: warning ⚠️")
	case contracts.StatusInactive:
		fmt.Println("Status: inactive ❌")
	}
	fmt.Println()
}

// formatStat renders a possibly undefined statistic
func formatStat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.4f", *v)
}
