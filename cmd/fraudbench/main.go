package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frauddetect/internal/config"
	"frauddetect/internal/logger"
	"frauddetect/pkg/data"
	"frauddetect/pkg/experiments"
)

// cli holds the flag values and the state built in PersistentPreRunE.
type cli struct {
	configPath string
	model      string
	all        bool

	dataPath   string
	target     string
	timeColumn string
	testSize   float64
	resultsDir string
	noPlots    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{}

	allowed := make([]string, len(experiments.Allowed))
	for i, n := range experiments.Allowed {
		allowed[i] = string(n)
	}

	root := &cobra.Command{
		Use:   "fraudbench",
		Short: "Benchmark fraud classifiers on a chronological train/test split",
		Long: `fraudbench trains classifiers on the credit-card transactions dataset.

Rows are ordered by the time column and the most recent fraction is held out
for testing. Scores are printed and fitted models are saved under the results
directory.

  fraudbench --model logistic   runs one experiment
  fraudbench --all              trains every default model plus the voting ensemble`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			env := c.env(out)
			switch {
			case c.all:
				return experiments.RunAll(ctx, env)
			case c.model != "":
				return experiments.Run(ctx, c.model, env)
			default:
				return cmd.Help()
			}
		},
	}
	root.SetOut(out)

	root.Flags().StringVar(&c.model, "model", "", "Model to run, one of: "+strings.Join(allowed, ", "))
	root.Flags().BoolVar(&c.all, "all", false, "Train all default models and the voting ensemble")
	root.MarkFlagsMutuallyExclusive("model", "all")
	_ = root.RegisterFlagCompletionFunc("model", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return allowed, cobra.ShellCompDirectiveNoFileComp
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "config.yaml", "YAML config file (optional)")
	pf.StringVar(&c.dataPath, "data", "", "CSV dataset path")
	pf.StringVar(&c.target, "target", "", "Label column")
	pf.StringVar(&c.timeColumn, "time-column", "", "Column used to order rows")
	pf.Float64Var(&c.testSize, "test-size", 0, "Fraction of the most recent rows held out")
	pf.StringVar(&c.resultsDir, "results", "", "Directory for models, metrics and plots")
	pf.BoolVar(&c.noPlots, "no-plots", false, "Skip precision/recall plots and tree rendering")

	root.AddCommand(newSplitCmd(c), newColumnsCmd(c, out), newScoreCmd(c, out))
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = c.dataPath
	}
	if flags.Changed("target") {
		cfg.Data.Target = c.target
	}
	if flags.Changed("time-column") {
		cfg.Data.TimeColumn = c.timeColumn
	}
	if flags.Changed("test-size") {
		cfg.Data.TestSize = c.testSize
	}
	if flags.Changed("results") {
		cfg.Results.Dir = c.resultsDir
	}
	if c.noPlots {
		cfg.Results.Plots = false
		cfg.Results.TreeDepth = 0
	}
	c.cfg = cfg

	c.logger, err = logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func (c *cli) env(out io.Writer) experiments.Env {
	return experiments.Env{
		DataPath:   c.cfg.Data.Path,
		ResultsDir: c.cfg.Results.Dir,
		Options: data.Options{
			Target:     c.cfg.Data.Target,
			TimeColumn: c.cfg.Data.TimeColumn,
			TestSize:   c.cfg.Data.TestSize,
		},
		Plots:     c.cfg.Results.Plots,
		TreeDepth: c.cfg.Results.TreeDepth,
		Out:       out,
		Logger:    c.logger,
		RunID:     uuid.NewString(),
	}
}

func newSplitCmd(c *cli) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Export the chronological split as .npy files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return experiments.ExportSplit(c.env(cmd.OutOrStdout()), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "out", "data/processed", "Output directory")
	return cmd
}

func newColumnsCmd(c *cli, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Print the numeric and categorical feature columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			num, cat, err := experiments.Columns(c.env(out))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "numeric (%d): %s\n", len(num), strings.Join(num, ", "))
			fmt.Fprintf(out, "categorical (%d): %s\n", len(cat), strings.Join(cat, ", "))
			return nil
		},
	}
}

func newScoreCmd(c *cli, out io.Writer) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a saved model bundle on the current test split",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			_, err := experiments.Rescore(ctx, c.env(out), path)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "artifact", "", "Path of a .gob bundle written by a run")
	_ = cmd.MarkFlagRequired("artifact")
	return cmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
