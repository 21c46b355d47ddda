package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/scheduler"
	"github.com/aescanero/autogent/internal/config"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/engine"
)

// localEngine builds an engine over the configured backends for one-shot
// commands
func localEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	b, err := buildBackends(ctx, cfg, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(b.bundle, engine.WithLogger(logger), engine.WithEventBus(b.eventBus))
	return eng, func() { b.close(context.Background(), logger) }, nil
}

func readDescription(path string) (*domain.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	return domain.ParseDescription(data)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRunCmd(load configLoader) *cobra.Command {
	var (
		file        string
		inputs      map[string]string
		inputsFile  string
		policy      string
		parallel    bool
		maxParallel int
		nodeTimeout time.Duration
		runID       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a workflow once and print its run report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			desc, err := readDescription(file)
			if err != nil {
				return err
			}

			values := domain.Values{}
			if inputsFile != "" {
				data, err := os.ReadFile(inputsFile)
				if err != nil {
					return fmt.Errorf("failed to read inputs: %w", err)
				}
				if err := json.Unmarshal(data, &values); err != nil {
					return fmt.Errorf("failed to parse inputs: %w", err)
				}
			}
			for k, v := range inputs {
				values[k] = v
			}

			opts := cfg.RunDefaults()
			opts.RunID = runID
			if cmd.Flags().Changed("policy") {
				if opts.FailurePolicy, err = domain.ParseFailurePolicy(policy); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("parallel") {
				opts.Parallel = parallel
			}
			if cmd.Flags().Changed("max-parallel") {
				opts.MaxParallel = maxParallel
			}
			if cmd.Flags().Changed("node-timeout") {
				opts.PerNodeTimeout = nodeTimeout
			}

			eng, closeBackends, err := localEngine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackends()

			ctx := cmd.Context()
			if cfg.Timeouts.RunTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Timeouts.RunTimeout)
				defer cancel()
			}

			report, err := eng.Run(ctx, desc, values, opts)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("run %s failed", report.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow description (JSON or YAML)")
	cmd.Flags().StringToStringVarP(&inputs, "input", "i", nil, "initial input value, key=value")
	cmd.Flags().StringVar(&inputsFile, "inputs", "", "JSON file with initial input values")
	cmd.Flags().StringVar(&policy, "policy", "", "failure policy (halt or continue)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "run independent nodes concurrently")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "concurrency limit in parallel mode")
	cmd.Flags().DurationVar(&nodeTimeout, "node-timeout", 0, "per-node timeout")
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier (generated when empty)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newValidateCmd(load configLoader) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load a workflow and print its execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			desc, err := readDescription(file)
			if err != nil {
				return err
			}

			eng, closeBackends, err := localEngine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackends()

			g, err := eng.Load(desc)
			if err != nil {
				return err
			}
			order, err := scheduler.Schedule(g)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"valid":           true,
				"nodes":           g.Len(),
				"execution_order": order,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow description (JSON or YAML)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newKindsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the node kinds available with the configured backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			eng, closeBackends, err := localEngine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackends()

			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"kinds":   eng.Kinds(),
				"aliases": eng.Aliases(),
			})
		},
	}
}
