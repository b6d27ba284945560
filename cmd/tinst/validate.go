package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toutaio/toutago-tinst/plan"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [plan...]",
		Short: "Check plan files without executing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				p, err := plan.Load(path)
				if err == nil {
					_, err = p.Build(plan.WithDefaultLifecycle(cfg.Lifecycle()))
				}
				if err != nil {
					invalid++
					fmt.Fprintf(out, "%s %s: %v\n", styles.fail.Render(markFail), path, err)
					continue
				}
				fmt.Fprintf(out, "%s %s (%d tests)\n", styles.pass.Render(markPass), path, p.CountTests())
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d plan(s) invalid", invalid, len(args))
			}
			return nil
		},
	}
}
