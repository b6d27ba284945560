package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toutaio/toutago-tinst/config"
	"github.com/toutaio/toutago-tinst/engine"
	"github.com/toutaio/toutago-tinst/plan"
)

func newRunCmd() *cobra.Command {
	var (
		parallel int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "run [plan...]",
		Short: "Execute one or more test plans",
		Long: `Executes every plan file with its own engine and prints the event tree
and a summary per plan. Plans run concurrently up to --parallel at a time;
reports are printed in argument order. Exits non-zero when any test or
container failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCfg := cfg
			if cmd.Flags().Changed("parallel") {
				runCfg.Parallel = parallel
			}
			if cmd.Flags().Changed("output") {
				runCfg.Output = output
			}
			if err := runCfg.Validate(); err != nil {
				return err
			}
			return runPlans(cmd.Context(), cmd.OutOrStdout(), runCfg, logger, args)
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 1, "number of plans executed concurrently")
	cmd.Flags().StringVar(&output, "output", config.OutputTree, "report format: tree or summary")
	return cmd
}

// planRun is the outcome of one plan file.
type planRun struct {
	path    string
	report  bytes.Buffer
	summary engine.Summary
	err     error
}

func runPlans(ctx context.Context, out io.Writer, cfg config.Config, logger *zap.Logger, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runs := make([]*planRun, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallel)

	for i, path := range paths {
		path := path
		pr := &planRun{path: path}
		runs[i] = pr
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				pr.err = err
				return nil
			}
			pr.summary, pr.err = executePlan(&pr.report, cfg, logger.With(zap.String("plan", path)), path)
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for _, pr := range runs {
		if pr.err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", styles.fail.Render(markFail), pr.path, pr.err)
			continue
		}
		if _, err := pr.report.WriteTo(out); err != nil {
			return err
		}
		if pr.summary.Failed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d plan(s) failed", failed, len(paths))
	}
	return nil
}

func executePlan(w io.Writer, cfg config.Config, logger *zap.Logger, path string) (engine.Summary, error) {
	p, err := plan.Load(path)
	if err != nil {
		return engine.Summary{}, err
	}

	build, err := p.Build(plan.WithDefaultLifecycle(cfg.Lifecycle()))
	if err != nil {
		return engine.Summary{}, err
	}

	recorder := engine.NewRecorder()
	e := engine.New(
		engine.WithLogger(logger),
		engine.WithListener(recorder),
	)
	summary := e.Execute(build.Containers...)

	renderReport(w, p.Name, recorder.Events(), summary, cfg.Output)
	return summary, nil
}
