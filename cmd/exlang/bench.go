package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/szaher/exlang/internal/ast"
	"github.com/szaher/exlang/internal/scope"
	"github.com/szaher/exlang/internal/telemetry"
)

func newBenchCmd() *cobra.Command {
	var (
		contextFile string
		iterations  int
	)

	cmd := &cobra.Command{
		Use:   "bench <expression>",
		Short: "Resolve an expression in a hot loop and report promotion",
		Long: `Resolve an expression repeatedly through the accelerated path and
report timing, run counts and whether the accessor was promoted to a
specialized strategy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadYAMLDoc(contextFile)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			policy.SetMetrics(telemetry.NewMetrics(reg))

			node, err := ast.NewNode([]byte(args[0]), 0)
			if err != nil {
				return err
			}
			sc := scope.NewMapScope()

			start := time.Now()
			var result any
			for i := 0; i < iterations; i++ {
				result, err = node.ResolveAccelerated(root, root, sc)
				if err != nil {
					return err
				}
			}
			elapsed := time.Since(start)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "result:     %v\n", result)
			fmt.Fprintf(out, "iterations: %d\n", iterations)
			fmt.Fprintf(out, "elapsed:    %s (%s/op)\n", elapsed, elapsed/time.Duration(iterations))
			fmt.Fprintf(out, "resident:   %d promoted accessor(s)\n", policy.ResidentCount())
			if t := node.EgressType(); t != nil {
				fmt.Fprintf(out, "egress:     %s\n", t)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextFile, "context", "c", "", "YAML context document")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10000, "Number of resolutions")
	return cmd
}
