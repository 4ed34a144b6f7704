package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/scheduler"
	"github.com/wonny/factorlab/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly evaluation scheduler",
	Long: `Starts the cron scheduler with the nightly factor evaluation job.

Every registered factor is re-evaluated over a trailing window and the
resulting reports and statuses persisted.

Flags:
  --lookback  trailing window length in days (default: 180)
  --freq      schedule frequency inside the window (default: weekly)
  --now       run the evaluation job immediately on startup

Example:
  go run ./cmd/factorlab scheduler
  go run ./cmd/factorlab scheduler --lookback 365 --freq monthly --now`,
	RunE: runScheduler,
}

var (
	// Flags
	schedLookback int
	schedFreq     string
	schedNow      bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().IntVar(&schedLookback, "lookback", 180, "trailing window length in days")
	schedulerCmd.Flags().StringVar(&schedFreq, "freq", "weekly", "schedule frequency (daily|weekly|monthly)")
	schedulerCmd.Flags().BoolVar(&schedNow, "now", false, "run the evaluation job immediately")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	frequency := contracts.Frequency(schedFreq)
	if !frequency.Valid() {
		return fmt.Errorf("invalid frequency %q", schedFreq)
	}
	if schedLookback < 1 {
		return fmt.Errorf("lookback must be >= 1 day")
	}

	application, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer application.close()

	evaluateJob := jobs.NewEvaluateJob(
		application.registry,
		application.evaluator,
		application.store,
		application.universe,
		schedLookback,
		frequency,
		application.logger,
	)

	sched := scheduler.New(application.logger)
	if err := sched.AddJob(evaluateJob); err != nil {
		return fmt.Errorf("add job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if schedNow {
		if err := sched.RunJob(evaluateJob.Name()); err != nil {
			return fmt.Errorf("run job: %w", err)
		}
	}

	fmt.Println("📆 Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}
