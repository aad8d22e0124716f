package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/erksrn/internal/config"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/integrators"
	"github.com/san-kum/erksrn/internal/logging"
	"github.com/san-kum/erksrn/internal/physics"
	"github.com/san-kum/erksrn/internal/population"
	"github.com/san-kum/erksrn/internal/storage"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	seed       uint64
	cells      int
	steps      int
	dt         float64
	mode       string
	workers    int
	solver     string
	divideAt   int
	paramSets  []string
)

// main registers the harness commands and executes the root command,
// exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "erksrn",
		Short:        "per-cell ERK propulsion SRN harness",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (info, debug, trace)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "seed a population and integrate it",
		Args:  cobra.NoArgs,
		RunE:  runPopulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	runCmd.Flags().IntVar(&cells, "cells", config.DefaultCells, "number of cells")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "outer steps")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "outer timestep")
	runCmd.Flags().StringVar(&mode, "mode", config.ModeSequential, "sequential or parallel")
	runCmd.Flags().IntVar(&workers, "workers", 4, "workers in parallel mode")
	runCmd.Flags().StringVar(&solver, "solver", integrators.DefaultSolver, "solver")
	runCmd.Flags().IntVar(&divideAt, "divide-at", 0, "divide cell 0 after this many steps (0 disables)")
	runCmd.Flags().StringArrayVar(&paramSets, "param", nil, `override a model parameter, e.g. --param "Eta Std=0.3"`)

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a run from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "additional outer steps")
	resumeCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	resumeCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "print the final SRN state of every cell in a run",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "list available solvers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range integrators.NewRegistry().ListSolvers() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, resumeCmd, listCmd, inspectCmd, presetsCmd, solversCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("cells") {
		cfg.Cells = cells
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("solver") {
		cfg.Solver = solver
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := applyParamOverrides(cfg, paramSets); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyParamOverrides sets model parameters by their reporting names.
func applyParamOverrides(cfg *config.Config, overrides []string) error {
	if len(overrides) == 0 {
		return nil
	}
	model := physics.NewErkPropulsion(cfg.Params.Physics())
	if err := setParams(model, overrides); err != nil {
		return err
	}
	cfg.Params.SetPhysics(model.Params)
	return nil
}

func setParams(target dynamo.Configurable, overrides []string) error {
	for _, kv := range overrides {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("param %q: want name=value", kv)
		}
		name = strings.TrimSpace(name)
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
		if err := target.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func printParams(w io.Writer, source dynamo.Configurable) {
	params := source.GetParams()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "\t%s\t%g\n", name, params[name])
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runPopulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	field := population.ConstantField{Params: cfg.Params}
	pop, err := population.New(population.OptionsFromConfig(cfg), field, logger)
	if err != nil {
		return err
	}
	if err := pop.Seed(cfg.Cells, cfg.Initial); err != nil {
		return err
	}

	tr := &population.Trajectory{}
	pop.AddObserver(tr)

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running population", "cells", cfg.Cells, "steps", cfg.Steps, "dt", cfg.Dt, "mode", cfg.Mode, "seed", cfg.Seed)
	start := time.Now()

	if divideAt > 0 && divideAt < cfg.Steps {
		if err := pop.Run(ctx, divideAt); err != nil {
			return err
		}
		if _, err := pop.Divide(0); err != nil {
			return err
		}
		err = pop.Run(ctx, cfg.Steps-divideAt)
	} else {
		err = pop.Run(ctx, cfg.Steps)
	}
	if err != nil {
		return err
	}

	return saveRun(cfg, pop, tr, "", logger, time.Since(start))
}

func resumeRun(cmd *cobra.Command, args []string) error {
	parentID := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	st := storage.New(cfg.DataDir)
	parent, err := st.Load(parentID)
	if err != nil {
		return err
	}
	cp, err := st.LoadCheckpoint(parentID)
	if err != nil {
		return err
	}

	// The field is not checkpointed; resume with the parent's parameters
	// unless a config or preset overrides them.
	if configFile == "" && preset == "" {
		cfg.Params = parent.Params
	}
	pop, err := population.Restore(cp, population.ConstantField{Params: cfg.Params}, logger)
	if err != nil {
		return err
	}

	tr := &population.Trajectory{}
	pop.AddObserver(tr)

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	if err := pop.Run(ctx, cfg.Steps); err != nil {
		return err
	}

	cfg.Seed = cp.Options.Seed
	cfg.Dt = cp.Options.Dt
	cfg.Mode = cp.Options.Mode
	cfg.Solver = cp.Options.Solver
	return saveRun(cfg, pop, tr, parentID, logger, time.Since(start))
}

func saveRun(cfg *config.Config, pop *population.Population, tr *population.Trajectory, parent string, logger *slog.Logger, elapsed time.Duration) error {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	cp, err := pop.Checkpoint()
	if err != nil {
		return err
	}

	runID, err := st.Save(storage.Run{
		Meta: storage.RunMetadata{
			Parent:  parent,
			Seed:    cfg.Seed,
			Dt:      cfg.Dt,
			Steps:   pop.Step(),
			EndTime: pop.Time(),
			Cells:   len(pop.Cells()),
			Mode:    cfg.Mode,
			Solver:  cfg.Solver,
			Params:  cfg.Params,
		},
		Trajectory: tr,
		Checkpoint: cp,
	})
	if err != nil {
		return err
	}

	logger.Info("run saved", "run", runID, "elapsed", elapsed, "steps", pop.Step(), "time", pop.Time())
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPARENT\tCREATED\tCELLS\tSTEPS\tT\tMODE\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%s\t%d\n",
			run.ID,
			run.Parent,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cells,
			run.Steps,
			run.EndTime,
			run.Mode,
			run.Seed,
		)
	}

	return w.Flush()
}

func inspectRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cp, err := st.LoadCheckpoint(args[0])
	if err != nil {
		return err
	}

	pop, err := population.Restore(cp, population.ConstantField{Params: meta.Params}, logging.Discard())
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  t=%.4f  step=%d\n\n", meta.ID, pop.Time(), pop.Step())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CELL\tTHETA\tHEADING\tERK\tTARGET AREA")
	for _, c := range pop.Cells() {
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\t%.6f\n",
			c.ID,
			c.SRN.Theta(),
			dynamo.WrapAngle(c.SRN.Theta()),
			c.SRN.Signal(),
			c.SRN.TargetArea(),
		)
		if err := c.SRN.Refresh(); err != nil {
			return fmt.Errorf("cell %d: %w", c.ID, err)
		}
		printParams(w, c.SRN.Model())
		if err := c.SRN.ReportParameters(w); err != nil {
			return err
		}
	}
	return w.Flush()
}
