// Package main implements the prprun CLI: it loads a PRP plan, partitions
// the tasks into execution groups, and drives them through the orchestrator.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/prprunner/internal/artifact"
	"github.com/fyrsmithlabs/prprunner/internal/config"
	"github.com/fyrsmithlabs/prprunner/internal/coverage"
	"github.com/fyrsmithlabs/prprunner/internal/executor"
	"github.com/fyrsmithlabs/prprunner/internal/logging"
	"github.com/fyrsmithlabs/prprunner/internal/orchestrator"
	"github.com/fyrsmithlabs/prprunner/internal/tracker"
)

var (
	configPath string
	planPath   string
	outputRoot string
	trackerURL string

	execCommand string
	execTimeout time.Duration
	manualMode  bool
	jsonOutput  bool

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "prprun",
	Short: "PRP plan execution orchestrator",
	Long: `prprun executes PRP task plans: it derives dependency-respecting
execution groups, dispatches each group (parallel or sequential), validates
the artifact every task must produce, and verifies full coverage at the end.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: prprunner.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&outputRoot, "output", "", "artifact output root (overrides config)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(coverageCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a PRP plan",
	Long: `Execute a PRP plan end to end.

Each task is handed to the executor command with its contract in the
environment (PRP_TASK_ID, PRP_TASK_NAME, PRP_ARTIFACT_PATH). With --manual
no command runs; the artifacts are expected to exist already and only the
gates are applied.

Examples:
  # Run a plan through a per-task command
  prprun run --plan plan.yaml --exec "./run-task.sh"

  # Re-validate artifacts produced out of band
  prprun run --plan plan.yaml --manual`,
	RunE: runRun,
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report artifact coverage for a plan",
	Long: `Recompute the coverage report for a plan against the artifacts
currently on disk, without executing anything.

Exits non-zero when coverage is incomplete.`,
	RunE: runCoverage,
}

func init() {
	runCmd.Flags().StringVar(&planPath, "plan", "", "plan file (required)")
	runCmd.Flags().StringVar(&execCommand, "exec", "", "command to run per task (via sh -c)")
	runCmd.Flags().DurationVar(&execTimeout, "exec-timeout", 0, "per-task timeout (0 = no limit)")
	runCmd.Flags().BoolVar(&manualMode, "manual", false, "skip execution, only validate existing artifacts")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the coverage report as JSON")
	runCmd.MarkFlagRequired("plan")

	runCmd.Flags().StringVar(&trackerURL, "tracker-url", "", "external tracker base URL (overrides config)")

	coverageCmd.Flags().StringVar(&planPath, "plan", "", "plan file (required)")
	coverageCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the coverage report as JSON")
	coverageCmd.MarkFlagRequired("plan")
}

// runtimeEnv bundles everything a subcommand needs after setup.
type runtimeEnv struct {
	cfg    *config.Config
	plan   *config.Plan
	logger *logging.Logger
	store  *artifact.Store
}

func setup() (*runtimeEnv, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat("prprunner.yaml"); err == nil {
			path = "prprunner.yaml"
		}
	}

	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, err
	}
	if outputRoot != "" {
		cfg.Output.Root = outputRoot
	}
	if trackerURL != "" {
		cfg.Tracker.Enabled = true
		cfg.Tracker.BaseURL = trackerURL
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	plan, err := config.LoadPlan(planPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output root: %w", err)
	}

	store, err := artifact.NewStore(cfg.Output.Root, plan.Scope, logger.Underlying())
	if err != nil {
		return nil, err
	}

	return &runtimeEnv{cfg: cfg, plan: plan, logger: logger, store: store}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if execCommand == "" && !manualMode {
		return fmt.Errorf("either --exec or --manual is required")
	}

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithScope(ctx, env.plan.Scope)

	groups, err := env.plan.Groups()
	if err != nil {
		return err
	}

	zl := env.logger.Underlying()

	gate, err := orchestrator.NewGate(env.store, env.cfg.Validation.MinContentLength, env.logger)
	if err != nil {
		return err
	}
	cov, err := coverage.NewTracker(env.store, zl)
	if err != nil {
		return err
	}

	var external tracker.ExternalTracker
	if env.cfg.Tracker.Enabled {
		client, err := tracker.NewClient(env.cfg.Tracker.ClientConfig(), zl)
		if err != nil {
			return err
		}
		external = client
	}
	adapter := tracker.NewAdapter(ctx, external, zl)

	coordinator, err := orchestrator.NewCoordinator(gate, cov, adapter, env.logger)
	if err != nil {
		return err
	}

	exec, err := buildExecutor(env)
	if err != nil {
		return err
	}

	report, runErr := coordinator.Run(ctx, groups, exec)
	if report != nil {
		printReport(cmd, report)
	}
	if runErr != nil {
		var valErr *orchestrator.ValidationError
		if errors.As(runErr, &valErr) {
			fmt.Fprintln(cmd.ErrOrStderr(), valErr.Detail.Render())
		}
		return runErr
	}

	return nil
}

// buildExecutor picks the executor for this run. Command executors run in
// the scope directory so relative artifact paths land inside the store;
// phase directories are created up front since the child writes directly.
func buildExecutor(env *runtimeEnv) (orchestrator.TaskExecutor, error) {
	if manualMode {
		return executor.Manual{}, nil
	}

	scopeDir := filepath.Join(env.cfg.Output.Root, env.plan.Scope)
	for _, t := range env.plan.Tasks {
		dir := filepath.Join(scopeDir, filepath.Dir(t.Validation.ArtifactPath(t.ID)))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create phase directory: %w", err)
		}
	}

	return executor.NewCommand([]string{"sh", "-c", execCommand}, scopeDir, execTimeout, env.logger)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	cov, err := coverage.NewTracker(env.store, env.logger.Underlying())
	if err != nil {
		return err
	}

	report, err := cov.Compute(cmd.Context(), env.plan.Tasks)
	if err != nil {
		return err
	}

	printReport(cmd, report)

	if report.Status != coverage.StatusComplete {
		return fmt.Errorf("coverage incomplete: %.1f%%", report.CoveragePercentage)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *coverage.Report) {
	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		return
	}

	fmt.Fprintf(out, "Coverage: %.1f%% (%d/%d tasks validated)\n",
		report.CoveragePercentage, report.ValidatedCount, report.TotalTasks)
	if len(report.MissingTaskIDs) > 0 {
		fmt.Fprintf(out, "Missing artifacts for tasks: %v\n", report.MissingTaskIDs)
	}
	fmt.Fprintf(out, "Status: %s\n", report.Status)
}
